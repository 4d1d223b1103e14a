// cleartags empties the keyword metadata of every media file under a
// directory tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/tstromberg/stikkord/pkg/stikkord"
)

var (
	dryRun = flag.Bool("n", false, "dry-run mode, only report the file count")
	backup = flag.Bool("backup", false, "copy the directory aside before clearing")
	tool   = flag.String("tool", "", "path to the exiftool binary")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if len(flag.Args()) != 1 {
		klog.Fatalf("Usage: %s [flags] <directory>", os.Args[0])
	}

	c := &stikkord.Config{
		Folder: flag.Args()[0],
		Tool:   *tool,
	}
	if err := c.ValidateClear(); err != nil {
		klog.Exitf("%v", err)
	}

	n, err := stikkord.CountMedia(c.Folder)
	if err != nil {
		klog.Exitf("count: %v", err)
	}
	klog.Infof("%d media files under %s", n, c.Folder)

	if *dryRun {
		return
	}

	if *backup {
		dst, err := stikkord.BackupFolder(c.Folder)
		if err != nil {
			klog.Exitf("backup: %v", err)
		}
		klog.Infof("backed up to %s", dst)
	}

	out, err := stikkord.NewWriter(c).Clear(context.Background(), c.Folder)
	if err != nil {
		klog.Exitf("clear failed: %v", err)
	}
	fmt.Println(out)
}
