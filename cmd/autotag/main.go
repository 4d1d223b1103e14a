// autotag writes AI-suggested keyword tags into the metadata of media files.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/tstromberg/stikkord/pkg/stikkord"
)

var (
	dryRun    = flag.Bool("n", false, "dry-run mode, don't tag things")
	overwrite = flag.Bool("o", false, "overwrite existing tags")
	workers   = flag.Int("workers", stikkord.DefaultWorkers, "worker pool size (1-10)")
	model     = flag.String("model", "", "Gemini model to use")
	tool      = flag.String("tool", "", "path to the exiftool binary")
	maxDim    = flag.Int("maxdim", 0, "downscale images larger than this before upload (0 = upload originals)")
	watchFlag = flag.Bool("watch", false, "keep running and re-tag when the directory changes")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	klog.Infof("autotag starting with %d input directories", len(flag.Args()))

	if len(flag.Args()) == 0 {
		klog.Fatalf("No input directories provided. Usage: %s [flags] <input_dir1> [input_dir2 ...]", os.Args[0])
	}
	if *watchFlag && len(flag.Args()) != 1 {
		klog.Fatalf("-watch supports exactly one input directory")
	}
	if *watchFlag && *overwrite {
		klog.Fatalf("-watch cannot be combined with -o: every change would re-tag the whole directory")
	}

	if err := godotenv.Load(); err != nil {
		klog.V(1).Infof("no .env loaded: %v", err)
	}

	ctx := context.Background()
	c := &stikkord.Config{
		Workers:      *workers,
		Model:        *model,
		Tool:         *tool,
		MaxUploadDim: *maxDim,
		SkipTagged:   !*overwrite,
		DryRun:       *dryRun,
	}

	if c.ResolveAPIKey() == "" {
		klog.Exitf("no API key found: set GEMINI_API_KEY or GOOGLE_AI_API_KEY")
	}

	tagger, err := stikkord.NewTagger(ctx, c)
	if err != nil {
		klog.Exitf("tagger: %v", err)
	}
	runner := stikkord.NewRunner(c, tagger, stikkord.NewWriter(c))

	run := func() {
		tagged := 0
		failed := 0
		skipped := 0
		total := 0

		for _, dir := range flag.Args() {
			c.Folder = dir
			if err := c.ValidateClear(); err != nil {
				klog.Errorf("skipping %s: %v", dir, err)
				continue
			}

			results, n, err := runner.Run(ctx)
			if err != nil {
				klog.Errorf("run %s: %v", dir, err)
				continue
			}
			total += n

			for o := range results {
				switch {
				case o.Skipped:
					skipped++
					klog.V(1).Infof("%s: %s", o.File, o.Message)
				case o.Success:
					tagged++
					klog.Infof("%s: %s", o.File, o.Message)
				default:
					failed++
					klog.Errorf("%s: %s", o.File, o.Message)
				}
			}
		}

		klog.Infof("autotag completed: %d tagged, %d failed, %d skipped of %d files across %d directories",
			tagged, failed, skipped, total, len(flag.Args()))
	}

	run()

	if *watchFlag {
		if err := stikkord.Watch(ctx, flag.Args()[0], run); err != nil {
			klog.Exitf("watch: %v", err)
		}
	}
}
