package ingest

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/storage"
)

const insertTimeout = 5 * time.Second

// Subscriber inserts telemetry received over MQTT through the gateway.
// Payloads that do not decode are logged and dropped.
type Subscriber struct {
	broker  string
	topic   string
	gateway storage.Gateway
	logger  internal.Logger
	client  mqtt.Client
}

func NewSubscriber(broker, topic string, gw storage.Gateway, logger internal.Logger) *Subscriber {
	return &Subscriber{broker: broker, topic: topic, gateway: gw, logger: logger}
}

// Start connects and subscribes. The subscription is renewed on every
// reconnect.
func (s *Subscriber) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.broker)
	opts.SetClientID(fmt.Sprintf("healthday-%d", time.Now().Unix()))
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(c mqtt.Client) {
		token := c.Subscribe(s.topic, 1, s.handle)
		if token.Wait() && token.Error() != nil {
			s.logger.Errorf("ingest: subscribe %s: %v", s.topic, token.Error())
			return
		}
		s.logger.Infof("ingest: subscribed to %s", s.topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.logger.Warnf("ingest: connection lost: %v", err)
	}

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (s *Subscriber) Stop() {
	if s.client == nil {
		return
	}
	s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
	s.client.Disconnect(250)
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	if err := s.Ingest(ctx, msg.Payload()); err != nil {
		s.logger.Warnf("ingest: dropping message on %s: %v", msg.Topic(), err)
	}
}

// Ingest decodes one payload and inserts the record it carries.
func (s *Subscriber) Ingest(ctx context.Context, payload []byte) error {
	rec, err := Decode(payload)
	if err != nil {
		return err
	}
	if err := s.gateway.Insert(ctx, rec); err != nil {
		return err
	}
	s.logger.Debugf("ingest: stored %s record", rec.Kind())
	return nil
}
