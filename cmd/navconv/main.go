package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyuri/navconv/internal/binary"
	"github.com/dyuri/navconv/internal/config"
	"github.com/dyuri/navconv/internal/export"
	"github.com/dyuri/navconv/internal/mapdir"
	"github.com/dyuri/navconv/internal/model"
	"github.com/dyuri/navconv/internal/text"
	"github.com/dyuri/navconv/pkg/navconv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Set up by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "navconv",
	Short: "Decode Source engine navigation mesh (.nav) files",
	Long: `navconv is a tool for working with Source engine NAV files.

It decodes the binary navigation mesh, checks it against the map geometry
it was built for, and converts it to KeyValues text, JSON, YAML or CBOR.
It can also inspect file metadata, validate area references, and rewrite
the geometry size of a nav file for a rebuilt map.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(bin2kvCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(resizeCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err = newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// mapName derives the map identifier from a nav path, compressed or not.
func mapName(navPath string) string {
	base, _ := export.TrimCompressionExt(filepath.Base(navPath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// geometryPath returns the --bsp flag if given, else the geometry file
// next to the nav file.
func geometryPath(cmd *cobra.Command, navPath string) string {
	if p, _ := cmd.Flags().GetString("bsp"); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(navPath), mapName(navPath)+cfg.Paths.MapExt)
}

func decodeOptions(cmd *cobra.Command) navconv.Options {
	opts := navconv.Options{
		SuppressCustomDataWarning: cfg.Decode.SuppressCustomDataWarning,
		Logger:                    logger,
	}
	if cmd.Flags().Lookup("no-geometry-check") != nil {
		opts.SkipGeometryCheck, _ = cmd.Flags().GetBool("no-geometry-check")
	}
	if cmd.Flags().Lookup("suppress-custom-data-warning") != nil && cmd.Flags().Changed("suppress-custom-data-warning") {
		opts.SuppressCustomDataWarning, _ = cmd.Flags().GetBool("suppress-custom-data-warning")
	}
	return opts
}

// outputOptions reads --format, --compress and --codepage, falling back
// to the configuration.
func outputOptions(cmd *cobra.Command) (export.Options, error) {
	formatName := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		formatName, _ = cmd.Flags().GetString("format")
	}
	compressName := cfg.Output.Compress
	if cmd.Flags().Changed("compress") {
		compressName, _ = cmd.Flags().GetString("compress")
	}
	codepage := cfg.Decode.CodePage
	if cmd.Flags().Changed("codepage") {
		codepage, _ = cmd.Flags().GetInt("codepage")
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return export.Options{}, err
	}
	compress, err := export.ParseCompression(compressName)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{Format: format, Compress: compress, CodePage: codepage}, nil
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "kv", "Output format: kv, json, yaml, cbor")
	cmd.Flags().String("compress", "none", "Output compression: none, zstd, lz4")
	cmd.Flags().Int("codepage", 1252, "Character encoding of place names")
}

// bin2kv command
var bin2kvCmd = &cobra.Command{
	Use:   "bin2kv <map.nav>",
	Short: "Convert a binary NAV file to KeyValues text",
	Long: `Convert a binary NAV file to Valve KeyValues text, or to JSON, YAML
or CBOR with --format.

The geometry file the nav was built for must exist; its size is checked
against the nav header. By default it is looked up next to the nav file.`,
	Args: cobra.ExactArgs(1),
	RunE: runBin2KV,
}

func init() {
	bin2kvCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	bin2kvCmd.Flags().String("bsp", "", "Geometry file (default: <map>.bsp next to the nav file)")
	bin2kvCmd.Flags().Bool("no-geometry-check", false, "Skip the geometry size check")
	bin2kvCmd.Flags().Bool("suppress-custom-data-warning", false, "Do not warn about unparsed custom area data")
	addOutputFlags(bin2kvCmd)
}

func runBin2KV(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	outOpts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	nav, err := navconv.ParseFiles(mapName(inputPath), geometryPath(cmd, inputPath), inputPath, decodeOptions(cmd))
	if err != nil {
		return fmt.Errorf("parse NAV file: %w", err)
	}

	// Determine output writer
	var output *os.File
	if outputPath == "" {
		output = os.Stdout
	} else {
		output, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer output.Close()
	}

	if err := export.Write(output, nav, outOpts); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <map.nav>",
	Short: "Display NAV file information",
	Long: `Display metadata and statistics about a NAV file.

Shows the header fields, the version-dependent layout, and counts of
places, areas, ladders, hiding spots and encounter spots. The geometry
size is only checked when --bsp is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
	infoCmd.Flags().String("bsp", "", "Geometry file to check the header against")
}

// navStats are the counts shown by info.
type navStats struct {
	Places         int `json:"places"`
	Areas          int `json:"areas"`
	Ladders        int `json:"ladders"`
	Connections    int `json:"connections"`
	HidingSpots    int `json:"hidingSpots"`
	EncounterSpots int `json:"encounterSpots"`
}

func countStats(nav *model.NavFile) navStats {
	s := navStats{
		Places:  len(nav.Places),
		Areas:   len(nav.Areas),
		Ladders: len(nav.Ladders),
	}
	for i := range nav.Areas {
		a := &nav.Areas[i]
		for _, ids := range a.Connections {
			s.Connections += len(ids)
		}
		s.HidingSpots += len(a.HidingSpots)
		s.EncounterSpots += len(a.EncounterSpots)
	}
	return s
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")
	bsp, _ := cmd.Flags().GetString("bsp")

	stat, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("stat input file: %w", err)
	}

	opts := decodeOptions(cmd)
	opts.SkipGeometryCheck = bsp == ""
	nav, err := navconv.ParseFiles(mapName(inputPath), bsp, inputPath, opts)
	if err != nil {
		return fmt.Errorf("parse NAV file: %w", err)
	}

	if jsonOutput {
		return outputInfoJSON(inputPath, nav, stat.Size())
	}
	return outputInfoText(inputPath, nav, stat.Size(), brief)
}

func outputInfoText(path string, nav *model.NavFile, fileSize int64, brief bool) error {
	stats := countStats(nav)
	if brief {
		// Brief mode: just the counts
		fmt.Printf("%s: version=%d places=%d areas=%d ladders=%d\n",
			path,
			nav.Header.Version,
			stats.Places,
			stats.Areas,
			stats.Ladders)
		return nil
	}

	layout := binary.LayoutFor(nav.Header.Version)

	fmt.Printf("NAV File: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	fmt.Println("Header:")
	fmt.Printf("  Magic:            0x%08X\n", nav.Header.Magic)
	fmt.Printf("  Version:          %d\n", nav.Header.Version)
	if nav.Header.Subversion != nil {
		fmt.Printf("  Subversion:       %d\n", *nav.Header.Subversion)
	}
	if nav.Header.GeometrySize != nil {
		size := int64(*nav.Header.GeometrySize)
		fmt.Printf("  Geometry size:    %s (%d bytes)\n", formatBytes(size), size)
	}
	if nav.Header.Analyzed != nil {
		fmt.Printf("  Analyzed:         %d\n", *nav.Header.Analyzed)
	}
	fmt.Printf("  Attribute width:  %d byte(s)\n", layout.AttrWidth)
	if layout.CustomData {
		fmt.Println("  Custom area data: possible, not parsed")
	}
	fmt.Println()

	fmt.Println("Contents:")
	if nav.Places != nil {
		fmt.Printf("  Places:           %d\n", stats.Places)
	}
	fmt.Printf("  Areas:            %d\n", stats.Areas)
	fmt.Printf("  Connections:      %d\n", stats.Connections)
	fmt.Printf("  Hiding spots:     %d\n", stats.HidingSpots)
	fmt.Printf("  Encounter spots:  %d\n", stats.EncounterSpots)
	fmt.Printf("  Ladders:          %d\n", stats.Ladders)
	fmt.Println()

	fmt.Printf("File Size:          %s (%d bytes)\n", formatBytes(fileSize), fileSize)

	// Place names (if not too many)
	if len(nav.Places) > 0 && len(nav.Places) <= 20 {
		dec, err := text.Decoder(cfg.Decode.CodePage)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("Places (%s):\n", text.CodePageName(cfg.Decode.CodePage))
		for _, p := range nav.Places {
			fmt.Printf("  %3d  %s\n", p.Index+1, text.DecodeName(dec, p.Name))
		}
	}

	return nil
}

func outputInfoJSON(path string, nav *model.NavFile, fileSize int64) error {
	info := map[string]interface{}{
		"file":     path,
		"header":   nav.Header,
		"counts":   countStats(nav),
		"fileSize": fileSize,
	}

	// Pretty print JSON
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <map.nav>",
	Short: "Validate NAV file structure and references",
	Long: `Validate a NAV file.

Decodes the file, then checks that every area, ladder and hiding spot
reference resolves, that area IDs are unique, and that place entries are
inside the place table. Decode failures are errors, reference problems
are warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
	validateCmd.Flags().String("bsp", "", "Geometry file (default: <map>.bsp next to the nav file)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	strict, _ := cmd.Flags().GetBool("strict")

	validator := newValidator(strict)
	validator.file = inputPath

	opts := decodeOptions(cmd)
	geometry := geometryPath(cmd, inputPath)
	if _, err := os.Stat(geometry); err != nil {
		validator.warning("No geometry file at %s; size check skipped", geometry)
		geometry = ""
		opts.SkipGeometryCheck = true
	}

	nav, err := navconv.ParseFiles(mapName(inputPath), geometry, inputPath, opts)
	if err != nil {
		validator.error("%v", err)
	} else {
		validator.validate(nav)
	}

	validator.printResults()

	if validator.hasErrors() || (strict && validator.hasWarnings()) {
		return fmt.Errorf("validation failed")
	}
	return nil
}

// Validator holds validation state
type validator struct {
	strict   bool
	errors   []string
	warnings []string
	file     string
}

func newValidator(strict bool) *validator {
	return &validator{
		strict:   strict,
		errors:   make([]string, 0),
		warnings: make([]string, 0),
	}
}

func (v *validator) error(msg string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(msg, args...))
}

func (v *validator) warning(msg string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(msg, args...))
}

func (v *validator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *validator) hasWarnings() bool {
	return len(v.warnings) > 0
}

func (v *validator) validate(nav *model.NavFile) {
	layout := binary.LayoutFor(nav.Header.Version)
	if !layout.SourceLayout {
		v.warning("Version %d predates the Source layout; GoldSrc files may decode incorrectly", nav.Header.Version)
	}
	if layout.CustomData {
		v.warning("Version %d may carry custom area data, which is not parsed", nav.Header.Version)
	}

	if len(nav.Areas) == 0 {
		v.warning("No navigation areas defined")
	}

	for _, issue := range navconv.Validate(nav) {
		if issue.Level == "error" {
			v.error("%s: %s", issue.Field, issue.Message)
		} else {
			v.warning("%s: %s", issue.Field, issue.Message)
		}
	}
}

func (v *validator) printResults() {
	fmt.Printf("Validating: %s\n", v.file)
	fmt.Println(strings.Repeat("=", 50))

	if len(v.errors) == 0 && len(v.warnings) == 0 {
		fmt.Println("✓ Valid NAV file - no issues found")
		return
	}

	// Print errors
	if len(v.errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(v.errors))
		for _, err := range v.errors {
			fmt.Printf("  ✗ %s\n", err)
		}
	}

	// Print warnings
	if len(v.warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(v.warnings))
		for _, warn := range v.warnings {
			fmt.Printf("  ⚠ %s\n", warn)
		}
	}

	// Summary
	fmt.Println()
	if len(v.errors) > 0 {
		fmt.Printf("Validation failed: %d error(s)", len(v.errors))
		if len(v.warnings) > 0 {
			fmt.Printf(", %d warning(s)", len(v.warnings))
		}
		fmt.Println()
	} else if len(v.warnings) > 0 {
		fmt.Printf("Validation passed with %d warning(s)\n", len(v.warnings))
		if v.strict {
			fmt.Println("(use without --strict to ignore warnings)")
		}
	}
}

// batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Convert every NAV file in a directory",
	Long: `Pair every nav file in the nav directory with its geometry file in
the maps directory, decode it, and write the converted output to the
output directory as <map>.<format>.

Directories come from the [paths] configuration section unless given as
flags. A map that fails is reported and skipped; the command exits with
an error if any map failed.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("maps-dir", "", "Directory of geometry files")
	batchCmd.Flags().String("navs-dir", "", "Directory of nav files")
	batchCmd.Flags().String("output-dir", "", "Directory for converted files")
	batchCmd.Flags().Bool("no-geometry-check", false, "Skip the geometry size check")
	batchCmd.Flags().Bool("suppress-custom-data-warning", false, "Do not warn about unparsed custom area data")
	addOutputFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	mapsDir := flagOr(cmd, "maps-dir", cfg.Paths.MapsDir)
	navsDir := flagOr(cmd, "navs-dir", cfg.Paths.NavsDir)
	outputDir := flagOr(cmd, "output-dir", cfg.Paths.OutputDir)

	outOpts, err := outputOptions(cmd)
	if err != nil {
		return err
	}

	pairs, err := mapdir.Pairs(mapsDir, navsDir, cfg.Paths.MapExt, cfg.Paths.NavExt)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		logger.Warn("no nav files found", zap.String("dir", navsDir))
		return nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := decodeOptions(cmd)
	var errs error
	for _, p := range pairs {
		outPath := filepath.Join(outputDir, p.Name+outOpts.Format.Ext()+outOpts.Compress.Ext())
		if err := convertPair(p, outPath, opts, outOpts); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name, err))
			logger.Error("convert failed", zap.String("map", p.Name), zap.Error(err))
			continue
		}
		logger.Info("converted", zap.String("map", p.Name), zap.String("output", outPath))
	}

	failed := len(multierr.Errors(errs))
	fmt.Fprintf(os.Stderr, "Converted %d of %d map(s)\n", len(pairs)-failed, len(pairs))
	if errs != nil {
		return fmt.Errorf("%d map(s) failed: %w", failed, errs)
	}
	return nil
}

func convertPair(p mapdir.Pair, outPath string, opts navconv.Options, outOpts export.Options) error {
	geometry := p.GeometryPath
	if geometry == "" && !opts.SkipGeometryCheck {
		return &navconv.DecodeError{
			Kind:  navconv.ErrMissingInputFile,
			Index: -1,
			Path:  filepath.Join(filepath.Dir(p.NavPath), p.Name+cfg.Paths.MapExt),
		}
	}

	nav, err := navconv.ParseFiles(p.Name, geometry, p.NavPath, opts)
	if err != nil {
		return fmt.Errorf("parse NAV file: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := export.Write(out, nav, outOpts); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("write output: %w", err)
	}
	return out.Close()
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}

// resize command
var resizeCmd = &cobra.Command{
	Use:   "resize <map.nav>",
	Short: "Update the geometry size recorded in a NAV file",
	Long: `Decode a NAV file without the geometry size check, set the header's
geometry size to the size of the given geometry file, and write the
result as a new binary NAV file.

Use this after rebuilding a map whose navigation mesh is still valid.`,
	Args: cobra.ExactArgs(1),
	RunE: runResize,
}

func init() {
	resizeCmd.Flags().String("bsp", "", "Geometry file to take the size from (required)")
	resizeCmd.Flags().StringP("output", "o", "", "Output file (required)")
	resizeCmd.MarkFlagRequired("bsp")
	resizeCmd.MarkFlagRequired("output")
}

func runResize(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	bsp, _ := cmd.Flags().GetString("bsp")
	outputPath, _ := cmd.Flags().GetString("output")

	stat, err := os.Stat(bsp)
	if err != nil {
		return fmt.Errorf("stat geometry file: %w", err)
	}
	if stat.Size() > int64(^uint32(0)) {
		return fmt.Errorf("geometry file is %d bytes, too large for a NAV header", stat.Size())
	}

	opts := decodeOptions(cmd)
	opts.SkipGeometryCheck = true
	nav, err := navconv.ParseFiles(mapName(inputPath), "", inputPath, opts)
	if err != nil {
		return fmt.Errorf("parse NAV file: %w", err)
	}

	if !binary.LayoutFor(nav.Header.Version).GeometrySize {
		return fmt.Errorf("NAV version %d has no geometry size field", nav.Header.Version)
	}
	size := uint32(stat.Size())
	var old uint32
	if nav.Header.GeometrySize != nil {
		old = *nav.Header.GeometrySize
	}
	nav.Header.GeometrySize = &size

	if err := writeFileAtomic(outputPath, func(w io.Writer) error {
		return navconv.WriteBinaryNav(w, nav)
	}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("geometry size updated",
		zap.String("map", nav.Meta.Map),
		zap.Uint32("old", old),
		zap.Uint32("new", size),
		zap.String("output", outputPath))
	return nil
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it over path once write succeeds.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("navconv version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
