// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/config"
	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/gps"
)

// mqttOptions builds the client options. onConnect, if set, runs after the
// initial connect and after every automatic reconnect.
func mqttOptions(broker, clientID string, onConnect mqtt.OnConnectHandler) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	if onConnect != nil {
		opts.SetOnConnectHandler(onConnect)
	}
	return opts
}

// connectMQTT connects a client to broker.
func connectMQTT(broker, clientID string, onConnect mqtt.OnConnectHandler) (mqtt.Client, error) {
	client := mqtt.NewClient(mqttOptions(broker, clientID, onConnect))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s", broker)
	return client, nil
}

// startMQTTLocator connects with the locator as the connect handler, so the
// fix topic is subscribed again after each reconnect.
func startMQTTLocator(cfg *config.Config, clientID string, logger *log.Entry) (*gps.MQTTLocator, func(), error) {
	loc := gps.NewMQTTLocator(cfg.TopicGPS, cfg.GPSMaxHDOP, logger)
	client, err := connectMQTT(cfg.MQTTBroker, clientID, loc.OnConnect)
	if err != nil {
		return nil, nil, err
	}
	return loc, func() {
		loc.Stop()
		client.Disconnect(250)
	}, nil
}

// requestOptions turns the configuration into tracker options.
func requestOptions(cfg *config.Config) geo.Options {
	return geo.Options{
		EnableHighAccuracy: cfg.EnableHighAccuracy,
		Timeout:            time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
	}
}

// StartLocator builds the location source named by LOCATION_SOURCE and
// starts feeding it until ctx is cancelled. For "none" the locator is nil.
// The returned stop function releases what the source holds.
func StartLocator(ctx context.Context, cfg *config.Config, mqttClientID string) (geo.Locator, func(), error) {
	logger := log.WithField("source", cfg.LocationSource)

	switch cfg.LocationSource {
	case config.SourceNMEA:
		loc := gps.NewNMEALocator(cfg.GPSMaxHDOP, logger)
		go func() {
			if err := loc.Serve(ctx, cfg.GPSSerialPort, cfg.GPSBaudRate); err != nil {
				logger.Errorf("GPS reader stopped: %v", err)
			}
		}()
		return loc, func() {}, nil

	case config.SourceMQTT:
		loc, stop, err := startMQTTLocator(cfg, mqttClientID, logger)
		if err != nil {
			return nil, nil, err
		}
		return loc, stop, nil

	case config.SourceMock:
		loc := gps.NewMockLocator(cfg.MockLatitude, cfg.MockLongitude,
			time.Duration(cfg.MockIntervalMS)*time.Millisecond)
		go loc.Run(ctx)
		logger.Println("using mock location source")
		return loc, func() {}, nil

	case config.SourceNone:
		logger.Println("no location source configured")
		return nil, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown location source %q", cfg.LocationSource)
}
