package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chzchzchz/freqscan/catalog"
	"github.com/chzchzchz/freqscan/config"
	"github.com/chzchzchz/freqscan/engine"
	"github.com/chzchzchz/freqscan/httpapi"
	flog "github.com/chzchzchz/freqscan/log"
	"github.com/chzchzchz/freqscan/radio"
)

var rootCmd = &cobra.Command{
	Use:   "scannerctl",
	Short: "Frequency scanner control engine.",
}

var (
	catalogPath string
	scannerPath string
	listName    string
	serveAddr   string
	debugLog    bool
	vfoName     string
	sdrSerial   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "catalog.toml", "catalog document path")
	rootCmd.PersistentFlags().StringVar(&scannerPath, "scanner", "scanner.toml", "scanner document path")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&vfoName, "vfo", "vfo0", "selected receiver VFO")
	rootCmd.PersistentFlags().StringVar(&sdrSerial, "serial", "", "select SDR device by serial number (default: first device)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan engine and HTTP read surface",
		Run:   func(cmd *cobra.Command, args []string) { serve() },
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog import/export",
	}
	importCmd := &cobra.Command{
		Use:   "import csvfile",
		Short: "Import a gqrx-style csv file into a catalog list",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { importCatalogCSV(args[0]) },
	}
	importCmd.Flags().StringVar(&listName, "list", "default", "catalog list name")
	catalogCmd.AddCommand(importCmd)

	exportCmd := &cobra.Command{
		Use:   "export csvfile",
		Short: "Export a catalog list to csv",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { exportCatalogCSV(args[0]) },
	}
	exportCmd.Flags().StringVar(&listName, "list", "default", "catalog list name")
	catalogCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(catalogCmd)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the scan engine",
	}
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run the scan engine for a fixed duration then stop",
		Run:   func(cmd *cobra.Command, args []string) { scanOnce() },
	}
	scanCmd.AddCommand(onceCmd)

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Sweep a center frequency for active bands to seed a catalog",
		Run:   func(cmd *cobra.Command, args []string) { discoverBands() },
	}
	discoverCmd.Flags().Float64Var(&discoverCenterMHz, "center-mhz", 100, "center frequency to sweep, in MHz")
	discoverCmd.Flags().Float64Var(&discoverMinWidthKHz, "min-width-khz", 10, "minimum band width to report, in kHz")
	scanCmd.AddCommand(discoverCmd)

	rootCmd.AddCommand(scanCmd)

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List SDR devices reachable over rtl_tcp",
		Run:   func(cmd *cobra.Command, args []string) { listDevices() },
	}
	rootCmd.AddCommand(devicesCmd)
}

var (
	discoverCenterMHz   float64
	discoverMinWidthKHz float64
)

func loadCatalog() *catalog.Catalog {
	cat := catalog.New()
	doc, err := config.LoadCatalog(catalogPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "catalog load:", err)
		}
		return cat
	}
	for name, list := range doc.Lists {
		cat.EnsureList(name)
		for bmName, bm := range list.Bookmarks {
			entry := bookmarkFromRecord(bm)
			if err := cat.AddBookmark(name, bmName, entry); err != nil {
				fmt.Fprintln(os.Stderr, "catalog load: skipping", bmName, err)
			}
		}
	}
	return cat
}

func bookmarkFromRecord(bm config.BookmarkRecord) catalog.Bookmark {
	kind := catalog.KindFrequency
	if bm.IsBand {
		kind = catalog.KindBand
	}
	out := catalog.Bookmark{
		Kind:        kind,
		FrequencyHz: bm.Frequency,
		NominalBWHz: bm.Bandwidth,
		StartHz:     bm.StartFreq,
		EndHz:       bm.EndFreq,
		StepHz:      bm.StepFreq,
		Notes:       bm.Notes,
		Tags:        bm.Tags,
		Scannable:   bm.Scannable,
		Profile:     profileFromRecord(bm.Profile),
	}
	return out
}

// profileFromRecord converts a persisted config.ProfileRecord into a
// catalog.TuningProfile, preserving it on the loaded Bookmark rather
// than silently dropping it (spec.md: "serialize→deserialize preserves
// every field including optional profile").
func profileFromRecord(pr *config.ProfileRecord) *catalog.TuningProfile {
	if pr == nil {
		return nil
	}
	return &catalog.TuningProfile{
		DemodMode:    catalog.DemodModeFromString(pr.Mode),
		BandwidthHz:  pr.BandwidthHz,
		SquelchOn:    pr.SquelchOn,
		SquelchDB:    pr.SquelchDB,
		Deemphasis:   catalog.DeemphasisFromString(pr.Deemphasis),
		AGCOn:        pr.AGCOn,
		RFGainDB:     pr.RFGainDB,
		CenterOffsHz: pr.CenterOffsHz,
	}
}

func importCatalogCSV(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	cat := loadCatalog()
	res, err := cat.ImportCSV(listName, f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("imported %d entries, skipped %d\n", res.Imported, len(res.Skipped))
	for i, name := range res.Skipped {
		fmt.Printf("  skipped %s: %s\n", name, res.Reasons[i])
	}
}

func exportCatalogCSV(path string) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	cat := loadCatalog()
	if err := cat.ExportCSV(f, listName, cat.BookmarkNames(listName)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultEngineConfig() engine.Config {
	return engine.Config{
		IntervalHz:     100000,
		ScanRateHz:     50,
		PassbandRatio:  0.1,
		TuningTimeAuto: true,
		LingerTime:     750 * time.Millisecond,
		LevelDBFS:      -50,
		VFOBandwidthHz: 200000,
		Recording: engine.RecordingParams{
			NameTemplate: "$y$M$d-$h$m$s-$f-$r-$n.wav",
			MinDuration:  2 * time.Second,
		},
	}
}

// loadEngineConfig loads the persisted Scanner document and converts it
// to an engine.Config, falling back to defaultEngineConfig when the
// document doesn't exist yet. The raw document is also returned (nil on
// fallback) so callers can pick up fields engine.Config has no room for,
// such as the persisted blacklist.
func loadEngineConfig() (engine.Config, *config.ScannerDocument) {
	doc, err := config.LoadScanner(scannerPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "scanner config load:", err)
		}
		return defaultEngineConfig(), nil
	}

	ranges := make([]engine.FrequencyRange, len(doc.FrequencyRanges))
	for i, r := range doc.FrequencyRanges {
		ranges[i] = engine.NewFrequencyRange(r.Name, r.Start, r.Stop, r.Enabled)
	}

	return engine.Config{
		IntervalHz:      doc.Interval,
		ScanRateHz:      doc.ScanRateHz,
		PassbandRatio:   doc.PassbandRatio,
		TuningTime:      time.Duration(doc.TuningTimeMs) * time.Millisecond,
		TuningTimeAuto:  doc.TuningTimeAuto,
		LingerTime:      time.Duration(doc.LingerTimeMs) * time.Millisecond,
		LevelDBFS:       doc.Level,
		UnlockHighSpeed: doc.UnlockHighSpeed,
		VFOBandwidthHz:  200000,
		LegacyRanges:    ranges,
		Squelch: engine.SquelchParams{
			SquelchDeltaDB:        doc.SquelchDelta,
			SquelchDeltaAuto:      doc.SquelchDeltaAuto,
			MuteWhileScanning:     doc.MuteWhileScanning,
			AggressiveMute:        doc.AggressiveMute,
			AggressiveMuteLevelDB: doc.AggressiveMuteLevel,
		},
		Recording: engine.RecordingParams{
			AutoRecord:    doc.AutoRecord,
			MinDuration:   time.Duration(doc.AutoRecordMinDuration) * time.Second,
			NameTemplate:  doc.AutoRecordNameTemplate,
			SequenceNum:   doc.RecordingSequenceNum,
			FilesCount:    doc.RecordingFilesCount,
			LastResetDate: doc.LastResetDate,
		},
	}, doc
}

// openSDR opens the device named by --serial, or the first device if
// unset (radio.NewSDR's default).
func openSDR(ctx context.Context) (radio.SDR, error) {
	if sdrSerial == "" {
		return radio.NewSDR(ctx)
	}
	return radio.NewSDRWithSerial(ctx, sdrSerial)
}

func buildEngine(ctx context.Context) (*engine.Engine, *catalog.Catalog, *catalog.Builder, *catalog.Blacklist) {
	flog.Init(debugLog)

	cat := loadCatalog()
	builder := catalog.NewBuilder(cat)

	cfg, doc := loadEngineConfig()
	bl := catalog.NewBlacklist()
	if doc != nil {
		bl.SetTolerance(doc.BlacklistTolerance)
		for _, f := range doc.BlacklistedFreqs {
			bl.Add(f)
		}
	}

	sdr, err := openSDR(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sdr open:", err)
		os.Exit(1)
	}

	rx := radio.NewReceiver(sdr, vfoName)
	fft := radio.NewFftSource(ctx, sdr, 2048, 20)
	rec := recorderStub{}

	eng := engine.New(cat, builder, bl, rx, fft, rec, vfoName, cfg, flog.EngineLogger{})
	return eng, cat, builder, bl
}

// recorderStub satisfies engine.Recorder when no audio pipeline is
// wired; auto-record stays disabled in cfg, so these are never called
// in a default `scan once`/`serve` invocation.
type recorderStub struct{}

func (recorderStub) SetMode(bool) error               { return nil }
func (recorderStub) SetExternalControl(string) error  { return nil }
func (recorderStub) StartWithFilename(string) error   { return engine.ErrInterfaceMissing }
func (recorderStub) Stop() (float64, error)           { return 0, nil }

func serve() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, cat, builder, bl := buildEngine(ctx)
	names := catalog.NewNameCache(cat, bl)

	if err := eng.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "engine start:", err)
	}
	defer eng.Stop()

	srv := httpapi.New(cat, builder, names, eng)
	srv.SetDeviceLister(radio.SDRList)
	fmt.Println("serving http on", serveAddr)
	if err := httpapi.ServeHttp(srv, serveAddr); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func scanOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, _, _, _ := buildEngine(ctx)
	if err := eng.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "engine start:", err)
		os.Exit(1)
	}
	time.Sleep(10 * time.Second)
	eng.Stop()
}

// discoverBands sweeps centerMHz with radio.Scan and prints the bands
// it finds, as frequency bookmarks ready to paste into a catalog csv
// (catalog import). This is a seeding aid, not a scannable source
// itself: the engine never calls radio.Scan directly.
func discoverBands() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sdr, err := openSDR(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sdr open:", err)
		os.Exit(1)
	}
	defer sdr.Close()

	bands := radio.Scan(sdr, radio.ScanConfig{
		CenterMHz:   discoverCenterMHz,
		MinWidthMHz: discoverMinWidthKHz / 1000,
	})
	for i, b := range bands {
		centerHz := int64(b.Center * 1e6)
		bwHz := int64(b.Width * 1e6)
		fmt.Printf("%d;discovered-%d;NFM;%d\n", centerHz, i, bwHz)
	}
}

// listDevices prints what radio.SDRList reports: the default rtl_tcp
// device only; other connected dongles are not listed.
func listDevices() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	devs, err := radio.SDRList(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "device list:", err)
		os.Exit(1)
	}
	for _, d := range devs {
		fmt.Printf("%s\t%d-%d Hz\n", d.Id, d.MinHz, d.MaxHz)
	}
}

func main() {
	rootCmd.Execute()
}
