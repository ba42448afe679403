package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	WebDir        string
	StaticDir     string
	DataDir       string
	DownloadsDir  string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Well-known dataset files (incremental, updated in place)
	TreasuryCSV    string
	BondSummaryCSV string

	// Well-known report files
	BondSummaryXLSX  string
	YieldWorkbook    string
	ChangeSummaryCSV string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exe)

	// All paths are relative to the executable directory so the
	// application behaves the same from dev/ and dist/.
	// Directory structure:
	// dist/
	//   ├── data/
	//   │   ├── global_treasury.csv   (incremental dataset)
	//   │   ├── bond_summary.csv      (incremental dataset)
	//   │   ├── downloads/            (portal export files)
	//   │   ├── reports/              (workbook + change summary)
	//   │   └── cache/                (debug page snapshots)
	//   ├── logs/
	//   └── web/
	dataDir := filepath.Join(exeDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		WebDir:        filepath.Join(exeDir, "web"),
		StaticDir:     filepath.Join(exeDir, "web", "static"),
		DownloadsDir:  filepath.Join(dataDir, "downloads"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(exeDir, "logs"),

		TreasuryCSV:    filepath.Join(dataDir, TreasuryCSVName),
		BondSummaryCSV: filepath.Join(dataDir, BondSummaryCSVName),

		BondSummaryXLSX:  filepath.Join(dataDir, BondSummaryXLSXName),
		YieldWorkbook:    filepath.Join(reportsDir, YieldWorkbookName),
		ChangeSummaryCSV: filepath.Join(reportsDir, ChangeSummaryCSVName),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.DownloadsDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetDownloadPath returns the path for a downloaded file
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetPortalDownloadPath returns the path the portal writes a fresh
// export to, before the session renames it for its batch.
func (p *Paths) GetPortalDownloadPath() string {
	return filepath.Join(p.DownloadsDir, PortalDownloadName)
}

// GetBatchExportPath returns the stable path for a batch export file
// (e.g. bond_summary_A.xls).
func (p *Paths) GetBatchExportPath(batch string) string {
	return filepath.Join(p.DownloadsDir, fmt.Sprintf(BatchExportPattern, batch))
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetDebugSnapshotPath returns the path for a saved page snapshot,
// written when identity resolution finds no instrument id in a page.
func (p *Paths) GetDebugSnapshotPath(code string) string {
	return filepath.Join(p.CacheDir, fmt.Sprintf("debug_pair_id_%s.html", code))
}

// GetWebFilePath returns the path to a web file
func (p *Paths) GetWebFilePath(filename string) string {
	return filepath.Join(p.WebDir, filename)
}

// GetStaticFilePath returns the path to a static file
func (p *Paths) GetStaticFilePath(filename string) string {
	return filepath.Join(p.StaticDir, filename)
}

// GetDatedWorkbookPath returns the path for a dated workbook snapshot
// (e.g. yields_20260218.xlsx).
func (p *Paths) GetDatedWorkbookPath(date time.Time) string {
	filename := fmt.Sprintf("yields_%s.xlsx", date.Format("20060102"))
	return filepath.Join(p.ReportsDir, filename)
}

// GetDatedDownloadDir returns the per-day raw download directory a
// portal session points the browser at (e.g. data/downloads/20260218).
func (p *Paths) GetDatedDownloadDir(date time.Time) string {
	return filepath.Join(p.DownloadsDir, date.Format(DateFormatCompact))
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("downloads", p.DownloadsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.Group("dataset_files",
			slog.String("treasury_csv", p.TreasuryCSV),
			slog.String("bond_summary_csv", p.BondSummaryCSV),
		),
		slog.Group("report_files",
			slog.String("bond_summary_xlsx", p.BondSummaryXLSX),
			slog.String("yield_workbook", p.YieldWorkbook),
			slog.String("change_summary_csv", p.ChangeSummaryCSV),
		))
}
