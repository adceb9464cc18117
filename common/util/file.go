package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common/logger"
)

// ResolveRoot validates that root is an existing directory and returns its
// canonical absolute path (symlinks resolved).
func ResolveRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("'%s': %w", root, apitype.ErrNotFound)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("'%s' is not a directory: %w", root, apitype.ErrInvalidPath)
	}
	absolute, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("'%s': %w", root, apitype.ErrInvalidPath)
	}
	canonical, err := filepath.EvalSymlinks(absolute)
	if err != nil {
		return "", fmt.Errorf("'%s': %w", root, apitype.ErrInvalidPath)
	}
	return canonical, nil
}

func MakeDirectoriesIfNotExist(permissionReference string, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		mode := os.FileMode(0755)
		if info, err := os.Stat(permissionReference); err == nil {
			mode = info.Mode()
		}
		return os.MkdirAll(dir, mode)
	}
	return nil
}

func CopyFile(srcDir string, srcFile string, dstDir string, dstFile string) error {
	srcFilePath := filepath.Join(srcDir, srcFile)
	dstFilePath := filepath.Join(dstDir, dstFile)
	logger.Trace.Printf("Copying '%s' to '%s'", srcFilePath, dstFilePath)

	if err := MakeDirectoriesIfNotExist(srcDir, dstDir); err != nil {
		return err
	}
	return copyInternal(srcFilePath, dstFilePath)
}

func copyInternal(src string, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()
	_, err = io.Copy(destination, source)
	return err
}

func RemoveFile(src string) error {
	logger.Trace.Printf("Deleting '%s'", src)
	return os.Remove(src)
}
