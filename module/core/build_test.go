package core

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type fakeMQTT struct{ mqtt.Client }

func newDeps(t *testing.T) Deps {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	return Deps{DB: db, MQTT: fakeMQTT{}, Redis: rdb}
}

func TestBuild_KafkaSinkRegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, err := Build(newDeps(t), Options{
		Workers:      2,
		AlertSink:    SinkKafka,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "fleet.alerts",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	r := gin.New()
	m.RegisterRoutes(&r.RouterGroup)

	want := map[string]bool{
		http.MethodGet + " /vehicles":                    false,
		http.MethodGet + " /vehicles/:vehicle_id/status": false,
		http.MethodPost + " /geofences":                  false,
		http.MethodPatch + " /geofences/:id/active":      false,
		http.MethodPost + " /draw/:operator_id/events":   false,
		http.MethodPost + " /missions":                   false,
		http.MethodGet + " /missions/:id/compliance":     false,
	}
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestBuild_RabbitMQSinkNeedsConnection(t *testing.T) {
	if _, err := Build(newDeps(t), Options{AlertSink: SinkRabbitMQ}); err == nil {
		t.Fatal("expected error without an amqp connection")
	}
}

func TestBuild_UnknownSink(t *testing.T) {
	if _, err := Build(newDeps(t), Options{AlertSink: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}
