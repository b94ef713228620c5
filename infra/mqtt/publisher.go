package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/routex/fleetlive/core/logger"
	"github.com/routex/fleetlive/core/model"
)

// Config defines the connection parameters for the position publisher.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies publisher defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fleetlive-publisher"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fleet"
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PositionPublisher mirrors each fleet snapshot onto MQTT, one message
// per vehicle on <prefix>/<locality>/positions/<vehicle-id>. It is the
// seam where a real telemetry channel would plug in: the snapshot stream
// becomes a broker topic any external consumer can subscribe to.
type PositionPublisher struct {
	cli    pahoClient
	prefix string
	qos    byte
	log    logger.Logger
}

type positionMessage struct {
	Tick      uint64    `json:"tick"`
	Timestamp time.Time `json:"timestamp"`
	model.Vehicle
}

// NewPositionPublisher connects to the broker.
func NewPositionPublisher(cfg Config, log logger.Logger) (*PositionPublisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		if log != nil {
			log.Errorf("connection lost: %v", err)
		}
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &PositionPublisher{cli: cli, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// Publish sends one message per vehicle. Delivery is fire-and-forget:
// a slow or absent broker must never stall the tick loop, so failures
// are only logged.
func (p *PositionPublisher) Publish(snap model.FleetSnapshot) {
	now := time.Now()
	for _, v := range snap.Vehicles {
		msg := positionMessage{Tick: snap.Tick, Timestamp: now, Vehicle: v}
		payload, err := json.Marshal(msg)
		if err != nil {
			if p.log != nil {
				p.log.Errorf("marshal position %s: %v", v.ID, err)
			}
			continue
		}
		topic := fmt.Sprintf("%s/%s/positions/%s", p.prefix, snap.Locality, v.ID)
		token := p.cli.Publish(topic, p.qos, false, payload)
		go func(id string) {
			if token.Wait() && token.Error() != nil && p.log != nil {
				p.log.Warnf("publish position %s: %v", id, token.Error())
			}
		}(v.ID)
	}
}

// Close disconnects from the broker.
func (p *PositionPublisher) Close() {
	p.cli.Disconnect(250)
}
