package app

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/config"
	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/gps"
)

// fixPublisher returns a callback that publishes each fix as JSON to topic,
// retained so new subscribers get the last fix at once.
func fixPublisher(client mqtt.Client, topic string) func(gps.Fix) {
	return func(fix gps.Fix) {
		payload, err := json.Marshal(fix)
		if err != nil {
			log.Printf("GPS JSON marshal error: %v", err)
			return
		}

		token := client.Publish(topic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("GPS publish error: %v", token.Error())
			return
		}

		log.Debugf("published GPS fix: %+v", fix)
	}
}

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes every RMC fix to TOPIC_GPS.
func RunGPSProducer(ctx context.Context) error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// ---- 2) Read the receiver and publish each fix ----
	loc := gps.NewNMEALocator(cfg.GPSMaxHDOP, log.WithField("component", "gps-producer"))
	loc.OnFix = fixPublisher(client, cfg.TopicGPS)

	return loc.Serve(ctx, cfg.GPSSerialPort, cfg.GPSBaudRate)
}

// RunMockProducer publishes fixes from the mock source to TOPIC_GPS, for
// running the MQTT consumers without a receiver.
func RunMockProducer(ctx context.Context) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	loc := gps.NewMockLocator(cfg.MockLatitude, cfg.MockLongitude,
		time.Duration(cfg.MockIntervalMS)*time.Millisecond)

	publish := fixPublisher(client, cfg.TopicGPS)
	id := loc.Watch(func(p geo.Position) {
		publish(gps.FixFromPosition(p))
	}, func(err *geo.PositionError) {
		log.Printf("mock source error: %v", err)
	}, geo.Options{})
	defer loc.ClearWatch(id)

	return loc.Run(ctx)
}
