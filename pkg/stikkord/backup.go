package stikkord

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// backupStamp names backup directories by creation time.
var backupStamp = "20060102-150405"

// BackupFolder copies folder to a timestamped sibling directory and returns
// the new path. Meant to run before a destructive clear.
func BackupFolder(folder string) (string, error) {
	dst := fmt.Sprintf("%s-backup-%s", filepath.Clean(folder), time.Now().Format(backupStamp))
	klog.Infof("backing up %s -> %s", folder, dst)
	if err := copy.Copy(folder, dst); err != nil {
		return "", fmt.Errorf("copy: %w", err)
	}
	return dst, nil
}
