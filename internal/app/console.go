package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/config"
	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/gps"
	"github.com/relabs-tech/whereiam/internal/tracker"
	"github.com/relabs-tech/whereiam/internal/view"
)

// printPosition writes one console line for a reading.
func printPosition(w io.Writer, p geo.Position) {
	st := view.NewState(&p, true)
	fmt.Fprintf(w,
		"[GPS ]  lat=%s lon=%s  #%s → #%s  %.0f°  %s\n",
		st.Latitude, st.Longitude, st.Color1, st.Color2, st.Angle, st.Path,
	)
}

// runConsole prints every reading from loc until ctx is cancelled.
func runConsole(ctx context.Context, loc geo.Locator, opts geo.Options) {
	tr := tracker.New(loc, log.WithField("component", "console"))
	sub := tr.Subscribe(opts, func(p geo.Position) {
		printPosition(os.Stdout, p)
	})
	defer sub.Unsubscribe()

	<-ctx.Done()
	log.Println("console: shutting down")
}

// RunConsoleMQTT prints positions received over MQTT.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	loc, stop, err := startMQTTLocator(cfg, cfg.MQTTClientIDConsole, nil)
	if err != nil {
		return err
	}
	defer stop()

	runConsole(ctx, loc, requestOptions(cfg))
	return nil
}

// RunMockConsole prints positions from the mock source.
func RunMockConsole(ctx context.Context) error {
	cfg := config.Get()

	loc := gps.NewMockLocator(cfg.MockLatitude, cfg.MockLongitude,
		time.Duration(cfg.MockIntervalMS)*time.Millisecond)
	go loc.Run(ctx)

	runConsole(ctx, loc, requestOptions(cfg))
	return nil
}
