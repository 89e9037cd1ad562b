package sio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xStarless-Skyx/skparse/core"
	"github.com/xStarless-Skyx/skparse/storage/mem"
	"github.com/xStarless-Skyx/skparse/syntax"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	p, err := syntax.NewParser(zaptest.NewLogger(t))
	require.NoError(t, err)
	svc := NewService(p, mem.NewStorage(), zaptest.NewLogger(t))
	svc.Clock = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestHandle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	r := svc.Handle(ctx, &Request{ID: "1", Text: "5 - 10 + {x}"})
	require.Nil(t, r.Error)
	assert.Equal(t, "1", r.ID)
	assert.Equal(t, "((-5) + {x})", r.Source)
	assert.Equal(t, "+", r.Tree["op"])
	assert.Nil(t, r.Value)

	r = svc.Handle(ctx, &Request{Text: "set {x} to 4", Kind: "effect", Eval: true})
	require.Nil(t, r.Error)

	r = svc.Handle(ctx, &Request{Text: "5 - 10 + {x}", Eval: true})
	require.Nil(t, r.Error)
	assert.Equal(t, int64(-1), r.Value)

	r = svc.Handle(ctx, &Request{Text: "{_y} * 2", Eval: true, Locals: map[string]interface{}{"y": json.Number("21")}})
	require.Nil(t, r.Error)
	assert.Equal(t, int64(42), r.Value)
	assert.Equal(t, int64(21), r.Locals["y"])

	r = svc.Handle(ctx, &Request{Text: "{x} is greater than 3", Kind: "condition", Eval: true})
	require.Nil(t, r.Error)
	assert.Equal(t, true, r.Value)
}

func TestHandleErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	r := svc.Handle(ctx, &Request{Text: "the length of"})
	require.NotNil(t, r.Error)
	assert.Equal(t, 13, r.Error.Offset)
	assert.Equal(t, "the length of %*%", r.Error.Suggestion)

	r = svc.Handle(ctx, &Request{Text: "1 / 0", Eval: true})
	require.NotNil(t, r.Error)
	assert.Contains(t, r.Error.Message, core.DivisionByZero.Error())

	r = svc.Handle(ctx, &Request{Text: "1", Kind: "statement"})
	assert.NotNil(t, r.Error)

	r = svc.Handle(ctx, &Request{Text: "1", Expect: "widget"})
	assert.NotNil(t, r.Error)

	svc.Storage = nil
	r = svc.Handle(ctx, &Request{Text: "1", Eval: true})
	assert.NotNil(t, r.Error)
}

func TestHandleWarnings(t *testing.T) {
	svc := newService(t)
	for _, owner := range []string{"a", "b"} {
		svc.Parser.Registry.MustRegister(core.Registration{
			Owner:    owner,
			Pattern:  "%number% doubled",
			Priority: core.PriorityCombined,
			New: func() core.Element {
				return &core.ElementFuncs{}
			},
		})
	}

	r := svc.Handle(context.Background(), &Request{Text: "3 doubled"})
	require.Nil(t, r.Error)
	assert.Len(t, r.Warnings, 1)

	r = svc.Handle(context.Background(), &Request{Text: "4"})
	assert.Empty(t, r.Warnings)
}

func TestHandleJSON(t *testing.T) {
	svc := newService(t)

	js, req := svc.HandleJSON(context.Background(), []byte(`{"id":"a","text":"2 ^ 3 ^ 2","eval":true}`))
	assert.Equal(t, "a", req.ID)
	var r map[string]interface{}
	require.NoError(t, json.Unmarshal(js, &r))
	assert.Equal(t, 512.0, r["value"])
	assert.Equal(t, "512", r["source"])

	js, _ = svc.HandleJSON(context.Background(), []byte(`{"text":`))
	r = nil
	require.NoError(t, json.Unmarshal(js, &r))
	assert.NotNil(t, r["error"])

	// Domain values marshal as text.
	js, _ = svc.HandleJSON(context.Background(), []byte(`{"text":"cron schedule \"@daily\"","eval":true}`))
	r = nil
	require.NoError(t, json.Unmarshal(js, &r))
	assert.Nil(t, r["error"])
	assert.Equal(t, "@daily", r["value"])
}

func TestStdio(t *testing.T) {
	svc := newService(t)
	in := strings.NewReader(`# comment
{"id":"1","text":"1 + 1","eval":true}

{"id":"2","text":"1 +"}
quit
{"id":"3","text":"2"}
`)
	var out bytes.Buffer
	s := &Stdio{In: in, Out: &out}
	require.NoError(t, s.Run(context.Background(), svc))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var r Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &r))
	assert.Equal(t, "1", r.ID)
	assert.Equal(t, 2.0, r.Value)
	r = Response{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &r))
	assert.Equal(t, "2", r.ID)
	assert.NotNil(t, r.Error)
}

func TestWebSocket(t *testing.T) {
	svc := newService(t)
	// The handler can outlive the test.
	svc.Logger = zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(svc.WebSocket(ctx))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i, text := range []string{"3 * 4", "the length of \"abc\""} {
		req, err := json.Marshal(&Request{ID: string(rune('a' + i)), Text: text, Eval: true})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

		_, bs, err := conn.ReadMessage()
		require.NoError(t, err)
		var r Response
		require.NoError(t, json.Unmarshal(bs, &r))
		assert.Equal(t, string(rune('a'+i)), r.ID)
		assert.Nil(t, r.Error)
	}
}

type token struct {
	mqtt.Token
}

func (t *token) Wait() bool   { return true }
func (t *token) Error() error { return nil }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type client struct {
	mqtt.Client
	published []published
}

func (c *client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic, qos, payload.([]byte)})
	return &token{}
}

type message struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *message) Topic() string   { return m.topic }
func (m *message) Payload() []byte { return m.payload }

func TestMQTTHandle(t *testing.T) {
	b := &MQTT{
		Conf: &MQTTConf{
			RequestTopic: "skparse/requests",
			ReplyTopic:   "skparse/replies:1",
		},
		Service: newService(t),
		Logger:  zaptest.NewLogger(t),
	}
	c := &client{}
	ctx := context.Background()

	b.handle(ctx, c, &message{topic: "skparse/requests", payload: []byte(`{"id":"x","text":"1 + 2","eval":true}`)})
	b.handle(ctx, c, &message{topic: "skparse/requests", payload: []byte(`{"id":"y","text":"1","replyTo":"mine:2"}`)})

	require.Len(t, c.published, 2)
	assert.Equal(t, "skparse/replies", c.published[0].topic)
	assert.Equal(t, byte(1), c.published[0].qos)
	var r Response
	require.NoError(t, json.Unmarshal(c.published[0].payload, &r))
	assert.Equal(t, "x", r.ID)
	assert.Equal(t, 3.0, r.Value)

	assert.Equal(t, "mine", c.published[1].topic)
	assert.Equal(t, byte(2), c.published[1].qos)

	b.Conf.ReplyTopic = ""
	b.handle(ctx, c, &message{topic: "skparse/requests", payload: []byte(`{"text":"1"}`)})
	assert.Len(t, c.published, 2)
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		in    string
		topic string
		qos   byte
	}{
		{"a/b", "a/b", 0},
		{"a/b:1", "a/b", 1},
		{"a/b:2", "a/b", 2},
		{"a/b:3", "a/b:3", 0},
		{"a:b", "a:b", 0},
		{"", "", 0},
	}
	for _, test := range tests {
		topic, qos := ParseTopic(test.in)
		if topic != test.topic || qos != test.qos {
			t.Errorf("%q: got %q %d", test.in, topic, qos)
		}
	}
}

func TestClientOptions(t *testing.T) {
	c := &MQTTConf{Broker: "tcp://localhost:1883", ClientID: "me", KeepAlive: time.Minute}
	opts, err := c.ClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "me", opts.ClientID)
	assert.Equal(t, int64(60), opts.KeepAlive)

	c.CAFilename = "/nonexistent"
	_, err = c.ClientOptions()
	assert.Error(t, err)
}
