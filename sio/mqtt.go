/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConf follows the mosquitto_sub command line args where it can.
type MQTTConf struct {
	Broker    string        `toml:"broker"`
	ClientID  string        `toml:"client_id"`
	Username  string        `toml:"username"`
	Password  string        `toml:"password"`
	KeepAlive time.Duration `toml:"keep_alive"`
	Reconnect bool          `toml:"reconnect"`
	Clean     bool          `toml:"clean"`

	CertFilename string `toml:"cert"`
	KeyFilename  string `toml:"key"`
	CAFilename   string `toml:"cafile"`
	Insecure     bool   `toml:"insecure"`

	// RequestTopic is subscribed to.  A ":QOS" suffix gives the
	// QoS.
	RequestTopic string `toml:"request_topic"`

	// ReplyTopic gets responses unless a request says otherwise.
	// A ":QOS" suffix gives the QoS.
	ReplyTopic string `toml:"reply_topic"`

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint `toml:"quiesce"`
}

// ClientOptions makes Paho options from the configuration.
func (c *MQTTConf) ClientOptions() (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.Broker)
	opts.SetClientID(c.ClientID)
	if c.KeepAlive > 0 {
		opts.SetKeepAlive(c.KeepAlive)
	}
	opts.SetPingTimeout(10 * time.Second)
	opts.Username = c.Username
	opts.Password = c.Password
	opts.AutoReconnect = c.Reconnect
	opts.CleanSession = c.Clean

	tlsConf := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CAFilename != "" {
		rootCAs, _ := x509.SystemCertPool()
		if rootCAs == nil {
			rootCAs = x509.NewCertPool()
		}
		certs, err := os.ReadFile(c.CAFilename)
		if err != nil {
			return nil, fmt.Errorf("couldn't read %s: %w", c.CAFilename, err)
		}
		if !rootCAs.AppendCertsFromPEM(certs) {
			return nil, fmt.Errorf("no certs in %s", c.CAFilename)
		}
		tlsConf.RootCAs = rootCAs
	}

	if c.KeyFilename != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFilename, c.KeyFilename)
		if err != nil {
			return nil, err
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	opts.SetTLSConfig(tlsConf)
	return opts, nil
}

// MQTT answers Requests published to a topic.
type MQTT struct {
	Client  mqtt.Client
	Conf    *MQTTConf
	Service *Service
	Logger  *zap.Logger
}

// NewMQTT makes an MQTT bridge with a Paho client.
func NewMQTT(conf *MQTTConf, svc *Service, logger *zap.Logger) (*MQTT, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &MQTT{
		Conf:    conf,
		Service: svc,
		Logger:  logger,
	}
	opts, err := conf.ClientOptions()
	if err != nil {
		return nil, err
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	}
	b.Client = mqtt.NewClient(opts)
	return b, nil
}

// Start connects and subscribes.  Requests are handled until the
// context is done or Stop is called.
func (b *MQTT) Start(ctx context.Context) error {
	b.Logger.Info("connecting to broker", zap.String("broker", b.Conf.Broker))
	if t := b.Client.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	topic, qos := ParseTopic(b.Conf.RequestTopic)
	if topic == "" {
		return fmt.Errorf("no request topic")
	}
	handler := func(client mqtt.Client, msg mqtt.Message) {
		b.handle(ctx, client, msg)
	}
	if t := b.Client.Subscribe(topic, qos, handler); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	b.Logger.Info("subscribed", zap.String("topic", topic), zap.Int("qos", int(qos)))
	return nil
}

// Stop terminates the MQTT session.
func (b *MQTT) Stop() {
	b.Logger.Info("disconnecting")
	b.Client.Disconnect(b.Conf.Quiesce)
}

// handle is a Paho message handler.
func (b *MQTT) handle(ctx context.Context, client mqtt.Client, msg mqtt.Message) {
	b.Logger.Debug("incoming", zap.String("topic", msg.Topic()), zap.ByteString("payload", msg.Payload()))

	js, req := b.Service.HandleJSON(ctx, msg.Payload())

	topic, qos := ParseTopic(b.Conf.ReplyTopic)
	if req.ReplyTo != "" {
		topic, qos = ParseTopic(req.ReplyTo)
	}
	if topic == "" {
		b.Logger.Warn("no reply topic", zap.String("id", req.ID))
		return
	}

	t := client.Publish(topic, qos, false, js)
	if t.Wait() && t.Error() != nil {
		b.Logger.Warn("publish error", zap.String("topic", topic), zap.Error(t.Error()))
		return
	}
	b.Logger.Debug("published", zap.String("topic", topic), zap.ByteString("payload", js))
}

// ParseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func ParseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.ParseUint(s[i+1:], 10, 8)
	if err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}
