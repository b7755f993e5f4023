// Package publish mirrors device state to an MQTT broker as retained JSON
// messages, one topic per device.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/config"
	"github.com/urmzd/remo/pkg/device"
)

const (
	qos            = 1
	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second
	statusOnline   = "online"
	statusOffline  = "offline"
)

// ErrTimeout indicates the broker did not acknowledge in time.
var ErrTimeout = errors.New("mqtt: timed out")

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher writes state changes to <prefix>/<type>/<id>/state.
type Publisher struct {
	conn    mqtt.Client
	client  client
	prefix  string
	timeout time.Duration
}

// Connect dials the broker in cfg and announces the bridge as online. The
// broker holds an offline will for unclean disconnects.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetWill(statusTopic(prefix), statusOffline, qos, true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}

	p := newPublisher(conn, prefix)
	p.conn = conn
	if err := p.send(statusTopic(prefix), []byte(statusOnline)); err != nil {
		conn.Disconnect(250)
		return nil, err
	}
	return p, nil
}

func newPublisher(c client, prefix string) *Publisher {
	return &Publisher{client: c, prefix: prefix, timeout: publishTimeout}
}

// Publish sends the state of dev as a retained message.
func (p *Publisher) Publish(dev device.Device, state device.DeviceState) error {
	payload, err := json.Marshal(message{
		ID:    dev.ID,
		Name:  dev.Name,
		Type:  dev.Type,
		State: state,
	})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return p.send(Topic(p.prefix, dev), payload)
}

func (p *Publisher) send(topic string, payload []byte) error {
	token := p.client.Publish(topic, qos, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	log.Debug().Str("topic", topic).Msg("Published state")
	return nil
}

// Close marks the bridge offline and disconnects.
func (p *Publisher) Close() {
	if err := p.send(statusTopic(p.prefix), []byte(statusOffline)); err != nil {
		log.Warn().Err(err).Msg("Failed to publish offline status")
	}
	if p.conn != nil {
		p.conn.Disconnect(250)
	}
}

type message struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Type  string             `json:"type"`
	State device.DeviceState `json:"state"`
}

// Topic returns the state topic of dev.
func Topic(prefix string, dev device.Device) string {
	return fmt.Sprintf("%s/%s/%s/state", prefix, dev.Type, topicSegment(dev.ID))
}

func statusTopic(prefix string) string {
	return prefix + "/status"
}

// topicSegment lowercases id and folds characters that are not safe in a
// topic level into single underscores.
func topicSegment(id string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			underscore = false
		case !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
