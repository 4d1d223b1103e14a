package stikkord

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// keywordFields are checked in order when reading tags back; viewers differ
// in which one they populate.
var keywordFields = []string{"Keywords", "Subject", "XPKeywords"}

// ListEligible returns the supported media files directly inside folder,
// sorted by name. Subdirectories and dotfiles are ignored; tagging is
// deliberately non-recursive.
func ListEligible(folder string) ([]string, error) {
	des, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	files := []string{}
	for _, de := range des {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if !eligible(de.Name()) {
			continue
		}
		files = append(files, filepath.Join(folder, de.Name()))
	}
	klog.V(1).Infof("%d eligible files in %s", len(files), folder)
	return files, nil
}

// CountMedia counts supported media files under root, recursively. The
// clear operation uses it for its preflight report.
func CountMedia(root string) (int, error) {
	n := 0
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				return nil
			}
			if eligible(path) {
				n++
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return 0, fmt.Errorf("walk: %w", err)
	}
	return n, nil
}

// ReadKeywords reads path's keyword fields back out of its metadata. Files
// with no tags yield an empty slice.
func ReadKeywords(path string) ([]string, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	defer func() {
		if err := et.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()
	return readKeywords(path, et)
}

func readKeywords(path string, et *exiftool.Exiftool) ([]string, error) {
	fis := et.ExtractMetadata(path)
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	for _, k := range keywordFields {
		ks, err := fi.GetStrings(k)
		if err != nil || len(ks) == 0 {
			continue
		}
		return ks, nil
	}
	return nil, nil
}
