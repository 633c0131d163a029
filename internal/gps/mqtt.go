package gps

import (
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// MQTTLocator is a location source fed by JSON fixes on an MQTT topic, as
// published by the GPS producer.
type MQTTLocator struct {
	*watchers
	topic  string
	logger *log.Entry

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTTLocator returns a locator for topic. Register OnConnect as the
// client's connect handler so the subscription is made on every connect.
func NewMQTTLocator(topic string, maxHDOP float64, logger *log.Entry) *MQTTLocator {
	if logger == nil {
		logger = log.WithField("component", "mqtt-locator")
	}
	return &MQTTLocator{
		watchers: newWatchers(maxHDOP * uereMeters),
		topic:    topic,
		logger:   logger,
	}
}

// OnConnect is an mqtt.OnConnectHandler. Paho calls it after the initial
// connect and after every automatic reconnect; a clean session drops
// subscriptions, so the topic is subscribed each time.
func (l *MQTTLocator) OnConnect(c mqtt.Client) {
	if err := l.Subscribe(c); err != nil {
		l.logger.Errorf("MQTT subscribe failed: %v", err)
		l.publishError(geo.NewError(geo.PositionUnavailable, "%v", err))
	}
}

// Subscribe subscribes c to the fix topic. A retained fix answers pending
// requests straight away.
func (l *MQTTLocator) Subscribe(c mqtt.Client) error {
	l.mu.Lock()
	l.client = c
	l.mu.Unlock()

	token := c.Subscribe(l.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		l.HandlePayload(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", l.topic, err)
	}
	l.logger.Printf("subscribed to MQTT topic %s", l.topic)
	return nil
}

// Stop unsubscribes from the fix topic.
func (l *MQTTLocator) Stop() {
	l.mu.Lock()
	c := l.client
	l.mu.Unlock()
	if c == nil {
		return
	}

	token := c.Unsubscribe(l.topic)
	token.Wait()
	if err := token.Error(); err != nil {
		l.logger.Printf("unsubscribe %s: %v", l.topic, err)
	}
}

// HandlePayload decodes one fix message.
func (l *MQTTLocator) HandlePayload(payload []byte) {
	var f Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		l.logger.Printf("MQTT payload unmarshal error: %v", err)
		return
	}
	if !f.Valid() {
		l.publishError(geo.NewError(geo.PositionUnavailable, "fix validity %q", f.Validity))
		return
	}
	l.publish(f.Position())
}
