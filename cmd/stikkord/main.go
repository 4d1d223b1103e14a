// stikkord serves a web UI that tags media folders with AI-generated
// keywords, or bulk-clears them.
package main

import (
	"flag"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/tstromberg/stikkord/pkg/shell"
	"github.com/tstromberg/stikkord/pkg/stikkord"
)

var (
	addr    = flag.String("addr", "localhost:12801", "host:port to bind to")
	folder  = flag.String("folder", "./images", "default media folder shown in the form")
	workers = flag.Int("workers", stikkord.DefaultWorkers, "default worker count shown in the form")
	model   = flag.String("model", "", "Gemini model to use")
	tool    = flag.String("tool", "", "path to the exiftool binary")
	maxDim  = flag.Int("maxdim", 0, "downscale images larger than this before upload (0 = upload originals)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		klog.V(1).Infof("no .env loaded: %v", err)
	}

	c := &stikkord.Config{
		Folder:       *folder,
		Workers:      *workers,
		Model:        *model,
		Tool:         *tool,
		MaxUploadDim: *maxDim,
	}

	s := shell.New(c)
	if err := s.Serve(*addr); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}
