package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type locationMessage struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
	Ignition  *bool   `json:"ignition,omitempty"`
	Blocked   *bool   `json:"blocked,omitempty"`
	AlarmCode *string `json:"alarm_code,omitempty"`
}

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomVehicleID() string {
	letter := string(charset[rand.Intn(26)])
	digits := fmt.Sprintf("%04d", rand.Intn(10000))
	suffix := string([]byte{charset[rand.Intn(26)], charset[rand.Intn(26)], charset[rand.Intn(26)]})
	return letter + digits + suffix
}

// loop is a closed drive around central Jakarta the simulated vehicles follow.
var loop = [][2]float64{
	{-6.2088, 106.8456},
	{-6.2000, 106.8230},
	{-6.1862, 106.8341},
	{-6.1754, 106.8272},
	{-6.1832, 106.8510},
	{-6.2088, 106.8456},
}

type vehicle struct {
	id       string
	leg      int     // index of the loop point the vehicle is heading away from
	progress float64 // fraction of the current leg covered
	ignition bool
	blocked  bool
}

func (v *vehicle) step(interval time.Duration) locationMessage {
	speed := 0.0
	if v.ignition && !v.blocked {
		speed = 20 + rand.Float64()*60
		// ~1.5 km per leg
		v.progress += speed / 3.6 * interval.Seconds() / 1500
		for v.progress >= 1 {
			v.progress--
			v.leg = (v.leg + 1) % (len(loop) - 1)
		}
	}

	a, b := loop[v.leg], loop[v.leg+1]
	lat := a[0] + (b[0]-a[0])*v.progress
	lng := a[1] + (b[1]-a[1])*v.progress

	// Occasionally flip ignition, block or raise an alarm so every status shows up.
	if rand.Float64() < 0.05 {
		v.ignition = !v.ignition
	}
	if rand.Float64() < 0.02 {
		v.blocked = !v.blocked
	}

	ignition, blocked := v.ignition, v.blocked
	msg := locationMessage{
		VehicleID: v.id,
		Latitude:  math.Round(lat*1e6) / 1e6,
		Longitude: math.Round(lng*1e6) / 1e6,
		Speed:     math.Round(speed*10) / 10,
		Timestamp: time.Now().Unix(),
		Ignition:  &ignition,
		Blocked:   &blocked,
	}
	if rand.Float64() < 0.03 {
		code := "PANIC"
		msg.AlarmCode = &code
	}
	return msg
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}
	interval := time.Duration(intervalSec) * time.Second

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-mock-publisher")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connect", "error", token.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)

	fleet := make([]*vehicle, 5)
	ids := make([]string, len(fleet))
	for i := range fleet {
		fleet[i] = &vehicle{
			id:       randomVehicleID(),
			leg:      rand.Intn(len(loop) - 1),
			progress: rand.Float64(),
			ignition: true,
		}
		ids[i] = fleet[i].id
	}

	slog.Info("connected", "broker", broker, "interval", interval, "vehicles", ids)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		for _, v := range fleet {
			msg := v.step(interval)
			payload, _ := json.Marshal(msg)
			topic := fmt.Sprintf("/fleet/vehicle/%s/location", v.id)

			token := client.Publish(topic, 1, false, payload)
			token.Wait()
			if err := token.Error(); err != nil {
				slog.Warn("publish failed", "topic", topic, "error", err)
				continue
			}
			slog.Debug("published", "topic", topic, "payload", string(payload))
		}
	}
}
