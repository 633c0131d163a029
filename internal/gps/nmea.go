// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// NMEALocator is a location source backed by an NMEA receiver. RMC
// sentences produce readings; GGA sentences supply altitude and HDOP for
// the next RMC.
type NMEALocator struct {
	*watchers
	logger *log.Entry

	// OnFix, if set, sees every RMC fix, void ones included, before it is
	// published.
	OnFix func(Fix)

	altitude float64
	hdop     float64
}

// NewNMEALocator returns a locator that rejects high-accuracy readings with
// an HDOP above maxHDOP (0 disables the check).
func NewNMEALocator(maxHDOP float64, logger *log.Entry) *NMEALocator {
	if logger == nil {
		logger = log.WithField("component", "nmea")
	}
	return &NMEALocator{
		watchers: newWatchers(maxHDOP * uereMeters),
		logger:   logger,
	}
}

// SerialOptions returns the port settings used for GPS receivers.
func SerialOptions(portName string, baudRate int) serial.OpenOptions {
	return serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
}

// Serve opens the serial port and reads sentences until ctx is cancelled
// or the port fails. If the port cannot be opened every request is denied.
func (l *NMEALocator) Serve(ctx context.Context, portName string, baudRate int) error {
	port, err := serial.Open(SerialOptions(portName, baudRate))
	if err != nil {
		l.setFatal(geo.NewError(geo.PermissionDenied, "open %s: %v", portName, err))
		return fmt.Errorf("open GPS serial port %s: %w", portName, err)
	}
	l.logger.Printf("GPS serial port opened on %s at %d baud", portName, baudRate)

	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	return l.Read(ctx, port)
}

// Read consumes NMEA sentences from r. A read error is reported to every
// watcher and returned, unless ctx was cancelled.
func (l *NMEALocator) Read(ctx context.Context, r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			l.HandleSentence(line)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				l.publishError(geo.NewError(geo.PositionUnavailable, "GPS stream closed"))
				return nil
			}
			l.publishError(geo.NewError(geo.PositionUnavailable, "GPS read: %v", err))
			return fmt.Errorf("GPS read: %w", err)
		}
	}
}

// HandleSentence parses one NMEA line. Noise and unsupported sentences are
// dropped silently.
func (l *NMEALocator) HandleSentence(line string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		l.logger.Debugf("NMEA parse error: %v (line: %q)", err, line)
		return
	}

	switch m := sentence.(type) {
	case nmea.GGA:
		l.altitude = m.Altitude
		l.hdop = m.HDOP
	case nmea.RMC:
		fix := Fix{
			Timestamp:  rmcTime(m),
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			CourseDeg:  m.Course,
			Altitude:   l.altitude,
			HDOP:       l.hdop,
			Validity:   string(m.Validity),
		}
		if l.OnFix != nil {
			l.OnFix(fix)
		}
		if !fix.Valid() {
			l.publishError(geo.NewError(geo.PositionUnavailable, "receiver reports void fix"))
			return
		}
		l.publish(fix.Position())
	}
}

// rmcTime combines the RMC date and time in UTC. Two-digit years from 80
// on are read as 19xx, matching the GPS epoch.
func rmcTime(m nmea.RMC) time.Time {
	if !m.Date.Valid || !m.Time.Valid {
		return time.Now().UTC()
	}
	year := 2000 + m.Date.YY
	if m.Date.YY >= 80 {
		year = 1900 + m.Date.YY
	}
	return time.Date(year, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
}
