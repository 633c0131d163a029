package app

import (
	"context"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/whereiam/internal/config"
	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/tracker"
	"github.com/relabs-tech/whereiam/internal/view"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// RunDisplay shows the current position on an SSD1306 OLED.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), splashImage(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	loc, stop, err := StartLocator(ctx, cfg, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer stop()

	tr := tracker.New(loc, log.WithField("component", "display"))
	sub := tr.Subscribe(requestOptions(cfg), nil)
	defer sub.Unsubscribe()

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var st view.State
		if p, ok := sub.Current(); ok {
			st = view.NewState(&p, true)
		} else {
			st = view.NewState(nil, tr.Supported())
		}

		if err := dev.Draw(dev.Bounds(), displayImage(st), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}

// displayLines lays a state out for the 128x64 panel.
func displayLines(st view.State) []string {
	if !st.HasPosition() {
		if st.Message == view.UnsupportedMessage {
			return []string{"Geolocation", "not supported"}
		}
		return []string{"Where am I?", st.Message}
	}

	lat, lon := st.Position.Clamped()
	latDir := "N"
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}
	lonDir := "E"
	if lon < 0 {
		lonDir = "W"
		lon = -lon
	}
	return []string{
		fmt.Sprintf("%.6f%s", lat, latDir),
		fmt.Sprintf("%.6f%s", lon, lonDir),
		"#" + st.Color1 + " #" + st.Color2,
		fmt.Sprintf("Hdg: %.0f", geo.GradientAngle(*st.Position)),
	}
}

func displayImage(st view.State) *image1bit.VerticalLSB {
	return drawLines(displayLines(st))
}

func splashImage() *image1bit.VerticalLSB {
	return drawLines([]string{"", "whereiam.now", "Looking for", "sats"})
}

func drawLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}
