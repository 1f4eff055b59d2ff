package frameo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	adbPath = "adb"

	adbStateCommand      = "dumpsys power | grep -E 'mWakefulness=|Display Power: state=' || true"
	adbBrightnessCommand = "settings get system screen_brightness"
)

// CommandRunner runs a host command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var (
	wakefulnessRegexp  = regexp.MustCompile(`mWakefulness=(\w+)`)
	displayPowerRegexp = regexp.MustCompile(`Display Power: state=(\w+)`)

	// adb's own link errors, as opposed to errors printed by the remote command
	adbLinkErrorRegexp = regexp.MustCompile(`^(error|adb): (device '[^']*' not found|device offline|device unauthorized|no devices/emulators found|closed|protocol fault|connection reset)`)
)

// ADBClient drives the device through the local adb binary.
type ADBClient struct {
	conn     ConnectionConfig
	timeouts Timeouts
	run      CommandRunner
	logger   *zap.Logger
}

func NewADBClient(conn ConnectionConfig, timeouts Timeouts, logger *zap.Logger) *ADBClient {
	return NewADBClientWithRunner(conn, timeouts, execRunner, logger)
}

func NewADBClientWithRunner(conn ConnectionConfig, timeouts Timeouts, run CommandRunner, logger *zap.Logger) *ADBClient {
	return &ADBClient{
		conn:     conn,
		timeouts: timeouts.withDefaults(),
		run:      run,
		logger:   logger.With(zap.String("transport", "adb"), zap.String("target", conn.Target())),
	}
}

func (c *ADBClient) adb(ctx context.Context, op string, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Debug("run adb", zap.String("op", op), zap.Strings("args", args))
	raw, err := c.run(ctx, adbPath, args...)
	output := string(raw)
	if isDisconnectedOutput(output) {
		return output, newDisconnectedError(op, 0, errors.New(strings.TrimSpace(output)))
	}
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		c.logger.Error("adb failed", zap.String("op", op), zap.Error(err), zap.String("output", output))
		return output, newTransportError(op, 0, err)
	}
	return output, nil
}

func (c *ADBClient) targetArgs(args ...string) []string {
	target := c.conn.Target()
	if target == "" {
		return args
	}
	return append([]string{"-s", target}, args...)
}

// Connect dials conn. The client keeps addressing the link it was built
// for; conn is expected to be the same configuration.
func (c *ADBClient) Connect(ctx context.Context, conn ConnectionConfig) (ConnectStatus, error) {
	switch conn.Kind {
	case ConnectionNetwork:
		output, err := c.adb(ctx, "connect", c.timeouts.Connect, "connect", conn.Target())
		if err != nil {
			return StatusError, err
		}
		lower := strings.ToLower(output)
		switch {
		case strings.Contains(lower, "already connected"):
			return StatusAlreadyConnected, nil
		case strings.Contains(lower, "failed"), strings.Contains(lower, "unable"), strings.Contains(lower, "cannot"):
			c.logger.Warn("adb connect refused", zap.String("output", strings.TrimSpace(output)))
			return StatusError, nil
		case strings.Contains(lower, "connected"):
			return StatusConnected, nil
		}
		return StatusError, nil
	default:
		// USB links cannot be dialled; wait for the device (and its
		// on-screen authorisation) to show up.
		args := c.targetArgs("wait-for-device", "get-state")
		output, err := c.adb(ctx, "connect", c.timeouts.Connect, args...)
		if err != nil {
			return StatusError, err
		}
		if strings.TrimSpace(output) == "device" {
			return StatusConnected, nil
		}
		return StatusError, nil
	}
}

func (c *ADBClient) Shell(ctx context.Context, command string) (string, error) {
	return c.adb(ctx, "shell", c.timeouts.Request, c.targetArgs("shell", command)...)
}

func (c *ADBClient) GetState(ctx context.Context) (*StateReport, error) {
	power, err := c.Shell(ctx, adbStateCommand)
	if err != nil {
		return nil, err
	}
	isOn, ok := parseScreenOn(power)
	if !ok {
		return nil, newTransportError("state", 0, fmt.Errorf("%w: is_on", ErrMissingField))
	}
	report := &StateReport{IsOn: isOn}

	brightness, err := c.Shell(ctx, adbBrightnessCommand)
	if err != nil {
		return nil, err
	}
	if b, err := strconv.Atoi(strings.TrimSpace(brightness)); err == nil {
		report.Brightness = b
	}
	return report, nil
}

func (c *ADBClient) EnableWireless(ctx context.Context) error {
	output, err := c.adb(ctx, "tcpip", c.timeouts.Request, c.targetArgs("tcpip", strconv.Itoa(DEFAULT_DEVICE_PORT))...)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(output), "restarting") {
		return newTransportError("tcpip", 0, fmt.Errorf("unexpected output: %s", strings.TrimSpace(output)))
	}
	return nil
}

func (c *ADBClient) GetIPAddress(ctx context.Context) (string, error) {
	output, err := c.Shell(ctx, "ip route")
	if err != nil {
		return "", err
	}
	if ip := parseRouteSource(output); ip != "" {
		return ip, nil
	}
	return "", newTransportError("ip", 0, fmt.Errorf("%w: src", ErrMissingField))
}

func (c *ADBClient) ListUSBDevices(ctx context.Context) ([]string, error) {
	output, err := c.adb(ctx, "devices", c.timeouts.USBScan, "devices", "-l")
	if err != nil {
		return nil, err
	}
	return parseUSBDevices(output), nil
}

func (c *ADBClient) Close() error {
	if c.conn.Kind != ConnectionNetwork {
		return nil
	}
	_, err := c.adb(context.Background(), "disconnect", c.timeouts.Request, "disconnect", c.conn.Target())
	return err
}

// isDisconnectedOutput looks at the first line only: adb reports link
// errors there, while shell output may contain anything. The prefix is
// case sensitive; device tools print "Error:".
func isDisconnectedOutput(output string) bool {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	return adbLinkErrorRegexp.MatchString(strings.TrimSpace(firstLine))
}

func parseScreenOn(output string) (bool, bool) {
	if m := displayPowerRegexp.FindStringSubmatch(output); m != nil {
		return strings.EqualFold(m[1], "ON"), true
	}
	if m := wakefulnessRegexp.FindStringSubmatch(output); m != nil {
		return strings.EqualFold(m[1], "Awake"), true
	}
	return false, false
}

func parseRouteSource(output string) string {
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		for i, part := range parts {
			if part == "src" && i+1 < len(parts) {
				return parts[i+1]
			}
		}
	}
	return ""
}

func parseUSBDevices(output string) []string {
	serials := []string{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 || parts[1] != "device" {
			continue
		}
		// network links show up as host:port
		if strings.Contains(parts[0], ":") || strings.Contains(parts[0], "._tcp") {
			continue
		}
		serials = append(serials, parts[0])
	}
	return serials
}
