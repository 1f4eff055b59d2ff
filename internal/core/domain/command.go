package domain

// FrameCommandRequest

type FrameCommandRequest interface {
	ActorRequest
	DeviceId() string
	frameCommand()
}

type FrameCommandRequestMixIn struct {
	ActorRequestMixIn
	Device string
}

func (r FrameCommandRequestMixIn) DeviceId() string {
	return r.Device
}

func (r FrameCommandRequestMixIn) frameCommand() {}

func ForDevice(deviceId string) FrameCommandRequestMixIn {
	return FrameCommandRequestMixIn{Device: deviceId}
}

// FrameCommandResponse

type FrameCommandResponse interface {
	ActorResponse
	DeviceState() *DeviceState
	DeviceStatus() ConnectionStatus
}

// FrameCommandResponseMixIn carries the snapshot taken once the command
// completed; State is nil when no refresh succeeded.
type FrameCommandResponseMixIn struct {
	ActorResponseMixIn
	State  *DeviceState
	Status ConnectionStatus
}

func (r FrameCommandResponseMixIn) DeviceState() *DeviceState {
	return r.State
}

func (r FrameCommandResponseMixIn) DeviceStatus() ConnectionStatus {
	return r.Status
}

// Frame commands

type RefreshRequest struct {
	FrameCommandRequestMixIn
}

type RefreshResponse struct {
	FrameCommandResponseMixIn
}

type GetSnapshotRequest struct {
	FrameCommandRequestMixIn
}

type GetSnapshotResponse struct {
	FrameCommandResponseMixIn
}

type LightCommandRequest struct {
	FrameCommandRequestMixIn
	On         bool
	Brightness *uint8
}

type LightCommandResponse struct {
	FrameCommandResponseMixIn
}

type ButtonPressRequest struct {
	FrameCommandRequestMixIn
	Key string
}

type ButtonPressResponse struct {
	FrameCommandResponseMixIn
}

type ExecuteCommandRequest struct {
	FrameCommandRequestMixIn
	RequestId string
	Command   string
}

type ExecuteCommandResponse struct {
	FrameCommandResponseMixIn
	RequestId string
	Command   string
	Result    string
}

type RefreshResolutionRequest struct {
	FrameCommandRequestMixIn
}

type RefreshResolutionResponse struct {
	FrameCommandResponseMixIn
	Width  int
	Height int
}

// ensure interface compliance
var _ FrameCommandRequest = (*RefreshRequest)(nil)
var _ FrameCommandRequest = (*GetSnapshotRequest)(nil)
var _ FrameCommandRequest = (*LightCommandRequest)(nil)
var _ FrameCommandRequest = (*ButtonPressRequest)(nil)
var _ FrameCommandRequest = (*ExecuteCommandRequest)(nil)
var _ FrameCommandRequest = (*RefreshResolutionRequest)(nil)
var _ FrameCommandResponse = (*LightCommandResponse)(nil)

// DetachReplyTo clears the explicit reply target so that a forwarded request
// is answered to its new sender.
func DetachReplyTo(req FrameCommandRequest) FrameCommandRequest {
	switch r := req.(type) {
	case RefreshRequest:
		r.ReplyToRef = nil
		return r
	case GetSnapshotRequest:
		r.ReplyToRef = nil
		return r
	case LightCommandRequest:
		r.ReplyToRef = nil
		return r
	case ButtonPressRequest:
		r.ReplyToRef = nil
		return r
	case ExecuteCommandRequest:
		r.ReplyToRef = nil
		return r
	case RefreshResolutionRequest:
		r.ReplyToRef = nil
		return r
	}
	return req
}

// FrameCommandErrorResponse builds the response type matching req carrying
// err, for requests that never reached the frame.
func FrameCommandErrorResponse(req FrameCommandRequest, err error) FrameCommandResponse {
	mixIn := FrameCommandResponseMixIn{
		ActorResponseMixIn: ErrorResponse(err),
		Status:             Disconnected,
	}
	switch r := req.(type) {
	case RefreshRequest:
		return RefreshResponse{FrameCommandResponseMixIn: mixIn}
	case GetSnapshotRequest:
		return GetSnapshotResponse{FrameCommandResponseMixIn: mixIn}
	case LightCommandRequest:
		return LightCommandResponse{FrameCommandResponseMixIn: mixIn}
	case ButtonPressRequest:
		return ButtonPressResponse{FrameCommandResponseMixIn: mixIn}
	case ExecuteCommandRequest:
		return ExecuteCommandResponse{FrameCommandResponseMixIn: mixIn, RequestId: r.RequestId, Command: r.Command}
	case RefreshResolutionRequest:
		return RefreshResolutionResponse{FrameCommandResponseMixIn: mixIn}
	}
	return RefreshResponse{FrameCommandResponseMixIn: mixIn}
}
