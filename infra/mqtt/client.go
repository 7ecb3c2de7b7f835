package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/gridmatch/core/model"
	coremon "github.com/kilianp07/gridmatch/core/monitoring"
	coremqtt "github.com/kilianp07/gridmatch/core/mqtt"
	"github.com/kilianp07/gridmatch/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string          `json:"broker"`
	ClientID     string          `json:"client_id"`
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	RequestTopic string          `json:"request_topic"`
	ResultTopic  string          `json:"result_topic"`
	UseTLS       bool            `json:"use_tls"`
	ClientCert   string          `json:"client_cert"`
	ClientKey    string          `json:"client_key"`
	CABundle     string          `json:"ca_bundle"`
	AuthMethod   string          `json:"auth_method"`
	QoS          map[string]byte `json:"qos"`
	LWTTopic     string          `json:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos"`
	LWTRetain    bool            `json:"lwt_retain"`
	MaxRetries   int             `json:"max_retries"`
	BackoffMS    int             `json:"backoff_ms"`
	TLSConfig    *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "gridmatch"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "gridmatch/requests"
	}
	if c.ResultTopic == "" {
		c.ResultTopic = "gridmatch/recommendations"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// pahoClient is the subset of paho.Client used by PahoClient.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the core mqtt.Client interface using Eclipse Paho.
// Requests received on the request topic are handed to the handler and the
// response is published on the result topic.
type PahoClient struct {
	cli          pahoClient
	handler      coremqtt.Handler
	requestTopic string
	resultTopic  string
	qos          map[string]byte
	logger       logger.Logger
	maxRetries   int
	backoff      time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

var _ coremqtt.Client = (*PahoClient)(nil)

// NewPahoClient connects to the MQTT broker and subscribes to the request
// topic. Each request is processed by h on the Paho callback goroutine.
func NewPahoClient(cfg Config, h coremqtt.Handler) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger := logger.New("mqtt_client")
	pc := &PahoClient{
		handler:      h,
		requestTopic: cfg.RequestTopic,
		resultTopic:  cfg.ResultTopic,
		qos:          cfg.QoS,
		logger:       logger,
		maxRetries:   cfg.MaxRetries,
		backoff:      time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		logger.Infof("MQTT connected")
		if pc.handler == nil {
			return
		}
		if token := c.Subscribe(pc.requestTopic, pc.qosFor("request"), pc.onRequest); token.Wait() && token.Error() != nil {
			logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	// requests are handled concurrently; ordering across requests is not
	// part of the contract
	opts.SetOrderMatters(false)
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onRequest(_ paho.Client, msg paho.Message) {
	Serve(msg.Payload(), p.handler, p, p.logger)
}

// Serve decodes one request payload, runs h and publishes the response on
// pub. Undecodable payloads are answered with an error response carrying
// the request id when it can still be read.
func Serve(payload []byte, h coremqtt.Handler, pub Client, log logger.Logger) {
	var req coremqtt.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		err = fmt.Errorf("%w: %v", coremqtt.ErrMalformedRequest, err)
		log.Errorf("failed to decode request: %v", err)
		var head struct {
			RequestID string `json:"request_id"`
		}
		_ = json.Unmarshal(payload, &head)
		if pubErr := pub.Publish(coremqtt.Response{RequestID: head.RequestID, Error: err.Error()}); pubErr != nil {
			log.Errorf("publish error response: %v", pubErr)
		}
		return
	}
	log.Infof("received clearing request %s", req.RequestID)
	res := h(req)
	if err := pub.Publish(res); err != nil {
		log.Errorf("publish response %s: %v", res.RequestID, err)
	}
}

// Publish sends res on the result topic, retrying with exponential backoff.
func (p *PahoClient) Publish(res coremqtt.Response) error {
	if res.Recommendations == nil {
		res.Recommendations = []model.Recommendation{}
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.resultTopic, p.qosFor("result"), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published %d recommendations for request %s to %s", len(res.Recommendations), res.RequestID, p.resultTopic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(publishErr, map[string]string{
		"module":     "mqtt",
		"request_id": res.RequestID,
		"topic":      p.resultTopic,
	})
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
