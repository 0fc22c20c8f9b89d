package misc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

func ReadFile(fileName string) (error, []byte) {
	if fileName == "" {
		return errors.New("no filename supplied"), []byte{}
	}
	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("unable to read %s - %w", fileName, err), []byte{}
	}
	return nil, fileBytes
}

// WriteFile creates or truncates fileName, creating any missing parent directories first.
func WriteFile(fileName string, contents []byte) (int, error) {
	if fileName == "" {
		return 0, errors.New("no filename supplied")
	}
	if err := EnsureDirectory(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, fmt.Errorf("unable to create file %s - %w", fileName, err)
	}
	bytesWritten, err := file.Write(contents)
	if err != nil {
		file.Close()
		return bytesWritten, fmt.Errorf("unable to write file %s - %w", fileName, err)
	}
	if err = file.Close(); err != nil {
		return bytesWritten, fmt.Errorf("unable to close file %s - %w", fileName, err)
	}
	return bytesWritten, nil
}

func EnsureDirectory(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.MkdirAll(path, os.ModePerm); err != nil {
			return fmt.Errorf("unable to create folder %s - %w", path, err)
		}
	}
	return nil
}
