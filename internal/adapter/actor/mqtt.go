package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/config"
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/mqtt"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config       *config.Config
	behavior     actor.Behavior
	stash        *actorutil.Stash
	client       *mqtt.MQTTClient
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	logger       *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to MQTT command topic
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				ctx.Send(ctx.Self(), ParsedCommand{Command: cmd})
			} else if !errors.Is(err, mqtt.ErrInvalidCommand) {
				state.logger.Warn("mqtt: rejected command", zap.String("topic", m.Topic()), zap.Error(err))
			}
		}, func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.subscribeToEvents(ctx)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: state.client.IsConnected(),
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishSensorUpdateRequest:
		// receive message from event bus and publish to MQTT if needed
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishSensorValue(ctx, msg.Event, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		err := state.PublishHomeAssistantDiscovery(msg.Sensors, msg.Lights, msg.Buttons)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
		})
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// subscribeToEvents forwards every sensor update published on the event
// stream to this actor.
func (state *MQTTActor) subscribeToEvents(ctx actor.Context) {
	if state.eventStream == nil || state.subscription != nil {
		return
	}
	root := ctx.ActorSystem().Root
	self := ctx.Self()
	state.subscription = state.eventStream.Subscribe(func(evt any) {
		if ev, ok := evt.(domain.SensorUpdateEvent); ok {
			root.Send(self, domain.PublishSensorUpdateRequest{Event: ev})
		}
	})
}

func (state *MQTTActor) event2MQTTMessage(event any) (*rawMessage, error) {
	switch msg := event.(type) {
	case domain.LightStateUpdateEvent:
		payload, err := mqtt.MarshalLightState(msg.On, msg.Brightness)
		if err != nil {
			return nil, err
		}
		return &rawMessage{
			topic:   state.client.LightStateTopic(msg.Frame),
			message: payload,
			retain:  true,
		}, nil
	case domain.BinarySensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.BinarySensorStateTopic(msg.Frame, msg.Id),
			message: bool2MQTTPayload(msg.Value),
			retain:  true,
		}, nil
	case domain.TextSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Frame, msg.Id),
			message: msg.Value,
			retain:  true,
		}, nil
	case domain.AvailabilityUpdateEvent:
		return &rawMessage{
			topic:   state.client.AvailabilityTopic(msg.Frame),
			message: bool2Availability(msg.Available),
			retain:  true,
		}, nil
	case domain.CommandResultEvent:
		payload, err := mqtt.MarshalADBResponse(msg)
		if err != nil {
			return nil, err
		}
		return &rawMessage{
			topic:   state.client.ADBResponseTopic(msg.Frame),
			message: payload,
		}, nil
	case domain.BridgeStateUpdateEvent:
		return &rawMessage{
			topic:   state.client.BridgeStateTopic(),
			message: bool2Availability(msg.Value),
			retain:  true,
		}, nil
	default:
		return nil, nil
	}
}

func (state *MQTTActor) publishSensorValue(ctx actor.Context, event domain.SensorUpdateEvent, retain bool, replyTo *actor.PID) {
	msg, err := state.event2MQTTMessage(event)
	if err != nil || msg == nil {
		if err != nil {
			state.logger.Error("mqtt@publish: could not encode event", zap.Error(err))
		}
		actorutil.ReplyTo(ctx, replyTo, domain.PublishSensorUpdateResponse{
			ActorResponseMixIn: domain.ErrorResponse(err),
		})
		return
	}
	state.logger.Sugar().Debugf("mqtt@publish: sensor publish %s => %s", msg.topic, msg.message)
	state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.EventPublishResultReceive)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		ctx.Send(ctx.Self(), publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		actorutil.ReplyTo(ctx, msg.ReplyTo, domain.PublishMessageResponse{
			ActorResponseMixIn: domain.ErrorResponse(msg.Error),
		})
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting, *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		actorutil.ReplyTo(ctx, msg.ReplyTo, domain.PublishSensorUpdateResponse{
			ActorResponseMixIn: domain.ErrorResponse(msg.Error),
		})
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting, *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(sensors []domain.GenericSensor,
	lights []domain.GenericLight, buttons []domain.GenericButton) error {
	for i := range sensors {
		msg := mqtt.GenericSensorToHADiscoveryMessage(state.client, sensors[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := state.client.HADiscoverySensorTopic(sensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range lights {
		msg := mqtt.GenericLightToHADiscoveryMessage(state.client, lights[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := state.client.HADiscoveryLightTopic(lights[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range buttons {
		msg := mqtt.GenericButtonToHADiscoveryMessage(state.client, buttons[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := state.client.HADiscoveryButtonTopic(buttons[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

func (state *MQTTActor) stop() {
	if state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
	if state.client == nil {
		return
	}
	state.logger.Debug("mqtt: disconnect")
	if state.client.IsConnected() {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
	}
	state.client.Disconnect(500 * time.Millisecond)
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

func bool2Availability(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ONLINE
	}
	return mqtt.MQTT_PAYLOAD_OFFLINE
}

// NewTestMQTTActor builds an actor that never talks to a broker. It records
// the messages it would have published.
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

// TestPublished is sent to the parent of a test actor for every message
// that would have reached the broker.
type TestPublished struct {
	Topic   string
	Payload string
	Retain  bool
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.subscribeToEvents(ctx)
	case *actor.Stopping:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishSensorUpdateRequest:
		raw, err := state.event2MQTTMessage(msg.Event)
		if err == nil && raw != nil && ctx.Parent() != nil {
			ctx.Send(ctx.Parent(), TestPublished{Topic: raw.topic, Payload: raw.message, Retain: raw.retain || msg.Retain})
		}
		actorutil.ReplyTo(ctx, actorutil.ForRequest(msg).ReplyTo(ctx), domain.PublishSensorUpdateResponse{})
	case domain.PublishMessageRequest:
		actorutil.ReplyTo(ctx, actorutil.ForRequest(msg).ReplyTo(ctx), domain.PublishMessageResponse{})
	case domain.PublishDiscoveryRequest:
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{})
	}
}
