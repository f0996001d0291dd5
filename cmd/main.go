package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/config"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/ndmi"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/notification"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/parcel"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/pipeline"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/properties"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/raster"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/stac"
	"github.com/nandanaasingh09/NDMI-Calculator/output"
)

func loadConfig() (*config.Config, error) {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	geojsonPath := flag.String("geojson_path", "", "path to the GeoJSON file containing the farm polygon")
	startDate := flag.String("start_date", "", "start date for the imagery search (YYYY-MM-DD)")
	endDate := flag.String("end_date", "", "end date for the imagery search (YYYY-MM-DD)")
	outputPath := flag.String("output_path", "", "directory to save the NDMI output images")
	processAll := flag.Bool("process_all", true, "process every matching scene instead of stopping after the first success")
	reportPath := flag.String("report_path", "", "optional path for a CSV run report")
	flag.Parse()

	if *configPath != "" {
		return config.FromFile(*configPath)
	}
	return config.New(config.Values{
		GeoJSONPath: *geojsonPath,
		StartDate:   *startDate,
		EndDate:     *endDate,
		OutputPath:  *outputPath,
		ProcessAll:  processAll,
		ReportPath:  *reportPath,
	})
}

func run(ctx context.Context, cfg *config.Config, settings properties.Settings, notifier *notification.Notifier) error {
	if err := raster.Setup(ctx, settings.VSIBlockSize, settings.VSICachedBlocks); err != nil {
		return err
	}

	farmParcel, err := parcel.Load(cfg.GeoJSONPath)
	if err != nil {
		return err
	}
	logrus.Infof("Loaded parcel %s centered at (%.5f, %.5f)",
		cfg.GeoJSONPath, farmParcel.Centroid.Lat(), farmParcel.Centroid.Lon())

	client := stac.NewClient(ctx, settings)
	pipe := pipeline.New(client, pipeline.ComputeFunc(ndmi.Compute), pipeline.RenderFunc(output.CreateNDMIImage), notifier)

	_, err = pipe.Run(ctx, pipeline.Params{
		Parcel:        farmParcel,
		StartDate:     cfg.StartDate,
		EndDate:       cfg.EndDate,
		MaxCloudCover: settings.MaxCloudCover,
		OutputDir:     cfg.OutputPath,
		ProcessAll:    cfg.ProcessAll,
		ReportPath:    cfg.ReportPath,
	})
	return err
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// A .env file is optional; the environment may already carry everything.
	_ = godotenv.Load()

	settings, err := properties.Load()
	if err != nil {
		logrus.Fatalf("Failed to load settings: %v", err)
	}
	notifier := notification.NewNotifier(settings)

	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, settings, notifier); err != nil {
		if notifyErr := notifier.SendError(err.Error()); notifyErr != nil {
			logrus.Warnf("Failed to send error notification: %v", notifyErr)
		}
		logrus.Fatalf("Run failed: %v", err)
	}
}
