package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// datedWorkbookPattern matches archived workbook snapshots
// (yields_YYYYMMDD.xlsx).
var datedWorkbookPattern = regexp.MustCompile(`^yields_(\d{8})\.xlsx$`)

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindExportFiles finds portal export files (.xls and .xlsx) in the
// specified directory, oldest first.
func (d *Discovery) FindExportFiles(dir string) ([]FileInfo, error) {
	files, err := d.listWithExtensions(dir, ".xls", ".xlsx")
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// FindCSVFiles finds all CSV files in the specified directory
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.listWithExtensions(dir, ".csv")
}

// FindDatedWorkbooks finds archived workbook snapshots keyed by their
// compact date (yields_20260218.xlsx -> "20260218").
func (d *Discovery) FindDatedWorkbooks(dir string) (map[string]FileInfo, error) {
	files, err := d.listWithExtensions(dir, ".xlsx")
	if err != nil {
		return nil, err
	}

	workbooks := make(map[string]FileInfo)
	for _, file := range files {
		m := datedWorkbookPattern.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		workbooks[m[1]] = file
	}
	return workbooks, nil
}

// listWithExtensions lists regular files whose lowercase name carries
// one of the given extensions.
func (d *Discovery) listWithExtensions(dir string, extensions ...string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := strings.ToLower(entry.Name())
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   false,
		})
	}

	return files, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
