package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/lsm6dsv320x/internal/config"
	"github.com/relabs-tech/lsm6dsv320x/internal/regmap"
	"github.com/relabs-tech/lsm6dsv320x/internal/sensor"
)

// samplePayload is the JSON schema published per axis triplet.
// x,y,z are raw device counts; time is RFC3339.
type samplePayload struct {
	X    int16  `json:"x"`
	Y    int16  `json:"y"`
	Z    int16  `json:"z"`
	Time string `json:"time"`
}

type tempPayload struct {
	Raw  int16  `json:"raw"`
	Time string `json:"time"`
}

// RunOISProducer configures the OIS chains and publishes burst samples
// over MQTT until the process is stopped.
func RunOISProducer() error {
	log.Println("starting lsm6dsv320x OIS producer")

	cfg := config.Get()

	s, closeBus, err := OpenSensor()
	if err != nil {
		log.Fatalf("failed to open sensor: %v", err)
		return err
	}
	defer closeBus()

	if s.Space() != regmap.Auxiliary {
		log.Println("WARNING: OIS outputs need INTERFACE=auxiliary; producer will publish status only")
	}

	// Program the OIS chains under the cross-interface handshake so the
	// primary side cannot race these writes.
	err = s.SharedAccess(func() error {
		if err := s.SetGyroFullScale(sensor.GyroFullScale(cfg.GyroFullScale)); err != nil {
			return err
		}
		if err := s.SetAccelFullScale(sensor.AccelFullScale(cfg.AccelFullScale)); err != nil {
			return err
		}
		return s.EnableOIS(true, true)
	})
	if err != nil {
		log.Fatalf("OIS configuration failed: %v", err)
		return err
	}
	log.Printf("OIS chains enabled (gyro fs code %d, accel fs code %d)", cfg.GyroFullScale, cfg.AccelFullScale)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		if s.Space() != regmap.Auxiliary {
			continue
		}

		status, err := s.Status()
		if err != nil {
			log.Printf("error reading OIS status: %v", err)
			continue
		}

		now := t.Format(time.RFC3339)

		if status.GyroDataReady && !status.GyroSettling {
			gyro, err := s.ReadGyro()
			if err != nil {
				log.Printf("error reading gyro burst: %v", err)
			} else {
				publish(client, cfg.TopicOISGyro, samplePayload{X: gyro.X, Y: gyro.Y, Z: gyro.Z, Time: now})
			}
		}

		if status.AccelDataReady {
			accel, err := s.ReadAccel()
			if err != nil {
				log.Printf("error reading accel burst: %v", err)
			} else {
				publish(client, cfg.TopicOISAccel, samplePayload{X: accel.X, Y: accel.Y, Z: accel.Z, Time: now})
			}
		}

		if cfg.TopicOISTemp != "" {
			raw, err := s.Temperature()
			if err != nil {
				log.Printf("error reading temperature: %v", err)
			} else {
				publish(client, cfg.TopicOISTemp, tempPayload{Raw: raw, Time: now})
			}
		}
	}
	return nil
}

func publish(client mqtt.Client, topic string, v interface{}) {
	if topic == "" {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshal error for %s: %v", topic, err)
		return
	}
	if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("publish error for %s: %v", topic, token.Error())
	}
}
