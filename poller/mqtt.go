package poller

import(
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	geojson "github.com/paulmach/go.geojson"

	"github.com/skypies/livetrack/log"
)

// {{{ MQTTSource{}

// MQTTSource keeps the latest snapshot published on a topic; Fetch hands out
// whatever arrived last. It lets the poller cadence stay the same whether the
// snapshot is pulled or pushed.
type MQTTSource struct {
	Broker string
	Topic  string
	Logger *log.Logger

	client mqtt.Client
	mu     sync.Mutex
	latest []byte
}

func NewMQTTSource(broker, topic, clientID string, lg *log.Logger) *MQTTSource {
	s := &MQTTSource{Broker:broker, Topic:topic, Logger:lg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("%s-%d", clientID, time.Now().Unix()))
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = s.onConnect
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		s.Logger.Warnf("mqtt: connection lost: %v (will auto-reconnect)", err)
	}

	s.client = mqtt.NewClient(opts)
	return s
}

// }}}
// {{{ s.Connect, s.onConnect

func (s *MQTTSource)Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("MQTTSource/Connect %s: timeout", s.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTTSource/Connect %s: %w", s.Broker, err)
	}
	return nil
}

func (s *MQTTSource)onConnect(c mqtt.Client) {
	token := c.Subscribe(s.Topic, 1, s.onMessage)
	if !token.WaitTimeout(5 * time.Second) {
		s.Logger.Warnf("mqtt: subscribe timeout for %s", s.Topic)
		return
	}
	if err := token.Error(); err != nil {
		s.Logger.Warnf("mqtt: subscribe %s: %v", s.Topic, err)
		return
	}
	s.Logger.Infof("mqtt: subscribed to %s", s.Topic)
}

// }}}
// {{{ s.Offer, s.Fetch

func (s *MQTTSource)onMessage(c mqtt.Client, msg mqtt.Message) {
	s.Offer(msg.Payload())
}

// Offer records a snapshot payload as the latest one.
func (s *MQTTSource)Offer(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = append([]byte{}, payload...)
}

func (s *MQTTSource)Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	s.mu.Lock()
	data := s.latest
	s.mu.Unlock()

	if data == nil {
		return nil, fmt.Errorf("MQTTSource %s: %w", s.Topic, ErrNoSnapshot)
	}
	return Decode(data)
}

// }}}
// {{{ s.Close

func (s *MQTTSource)Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(1000)
	}
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
