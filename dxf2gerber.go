// Copyright 2018 Vasily Turchenko <turchenkov@gmail.com>. All rights reserved.
// Use of this source code is free

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"

	"dxf2gerber/configurator"
	"dxf2gerber/converter"
	"dxf2gerber/layers"
	"dxf2gerber/plotter"
)

var (
	infoLevel = flag.Int("info", 3, "application info: 0 - none, 3 - full")

	// configuration base
	viperConfig *viper.Viper
)

func main() {
	var (
		sourceFileName string
		listOnly       bool
		yesAll         bool
		noAll          bool
		outDir         string
		genPNG         bool
	)
	flag.StringVar(&sourceFileName, "i", "", "input file")
	flag.BoolVar(&listOnly, "list", false, "print the layers of the input files and exit")
	flag.BoolVar(&yesAll, "y", false, "overwrite existing gerber files")
	flag.BoolVar(&noAll, "n", false, "never overwrite existing gerber files")
	flag.StringVar(&outDir, "o", "", "output directory, default is the directory of the input file")
	flag.BoolVar(&genPNG, "png", false, "render a PNG preview of every gerber file written")
	flag.Parse()
	defer glog.Flush()

	fmt.Println(returnAppInfo(*infoLevel))

	viperConfig = viper.New()
	configurator.SetDefaults(viperConfig)
	cfgFileError := configurator.ProcessConfigFile(viperConfig)
	if cfgFileError != nil {
		fmt.Print("An error has occured: ")
		fmt.Println(cfgFileError)
		fmt.Println("Using built-in defaults.")
		viperConfig = viper.New()
		configurator.SetDefaults(viperConfig)
	}

	inputs := flag.Args()
	if len(sourceFileName) != 0 {
		inputs = append([]string{sourceFileName}, inputs...)
	}
	if len(inputs) == 0 {
		fmt.Println("No input file specified.\nUsage:")
		flag.PrintDefaults()
		os.Exit(-1)
	}
	if yesAll && noAll {
		checkError(errors.New("-y and -n are mutually exclusive"), -1)
	}
	if outDir != "" {
		viperConfig.Set(configurator.CfgOutputDir, outDir)
	}
	if genPNG {
		viperConfig.Set(configurator.CfgRendererGeneratePNG, true)
	}
	switch {
	case yesAll:
		viperConfig.Set(configurator.CfgOutputOverwrite, configurator.OverwriteAlways)
	case noAll:
		viperConfig.Set(configurator.CfgOutputOverwrite, configurator.OverwriteNever)
	}
	policy, err := configurator.Overwrite(viperConfig)
	checkError(err, -1)

	if glog.V(2) {
		configurator.DiagnosticAllCfgPrint(viperConfig)
	}

	confirm := newConfirmer(policy, os.Stdin, os.Stdout)
	failed := 0
	for _, in := range inputs {
		if listOnly {
			err = listLayers(in)
		} else {
			err = convert(in, confirm)
		}
		if err != nil {
			fmt.Println(err)
			failed++
		}
	}
	if failed > 0 {
		glog.Flush()
		os.Exit(1)
	}
}

func options() converter.Options {
	return converter.Options{
		OutputDir:        viperConfig.GetString(configurator.CfgOutputDir),
		Extension:        viperConfig.GetString(configurator.CfgOutputExtension),
		DefaultThickness: viperConfig.GetFloat64(configurator.CfgLayersDefaultThickness),
		MinThickness:     viperConfig.GetFloat64(configurator.CfgLayersMinThickness),
		MaxThickness:     viperConfig.GetFloat64(configurator.CfgLayersMaxThickness),
		MetricsFile:      viperConfig.GetString(configurator.CfgOutputMetricsFile),
		PNG:              viperConfig.GetBool(configurator.CfgRendererGeneratePNG),
		PNGDPI:           viperConfig.GetFloat64(configurator.CfgRendererDPI),
		PNGMargin:        viperConfig.GetFloat64(configurator.CfgRendererMargin),
	}
}

func convert(sourceFileName string, confirm plotter.Confirmer) error {
	timeStamp := time.Now()
	timeInfo(timeStamp)
	fmt.Println("input file:", sourceFileName)
	printMemUsage("Memory usage before conversion:")

	progress := &consoleProgress{
		start: timeStamp,
		quiet: !viperConfig.GetBool(configurator.CfgCommonPrintStatistic),
	}
	c := converter.New(sourceFileName, nil, options(), confirm, progress)
	err := c.Run(func(cat *layers.Catalog) {
		if err := configurator.ConfigureCatalog(viperConfig, cat); err != nil {
			glog.Warningln(err)
			fmt.Println(err)
		}
	})

	if viperConfig.GetBool(configurator.CfgCommonPrintLayersInfo) {
		fmt.Println("Layers:")
		for _, l := range c.Context().Layers.Layers() {
			fmt.Println("\t" + l.String())
		}
	}
	if viperConfig.GetBool(configurator.CfgCommonPrintAperturesInfo) {
		fmt.Println("Apertures:")
		for _, ap := range c.Context().Apertures.Apertures() {
			fmt.Println("\t" + ap.String())
		}
	}
	printMemUsage("Memory usage after conversion:")
	timeInfo(timeStamp)
	fmt.Println("done")
	return err
}

// listLayers prints the layers of a drawing with the attributes they would get
func listLayers(sourceFileName string) error {
	c := converter.New(sourceFileName, nil, options(), plotter.NeverOverwrite, nil)
	if err := c.ScanLayers(); err != nil {
		return err
	}
	var cfgErr error
	if err := c.EditLayers(func(cat *layers.Catalog) {
		cfgErr = configurator.ConfigureCatalog(viperConfig, cat)
	}); err != nil {
		return err
	}
	fmt.Println(sourceFileName + ":")
	for _, l := range c.Context().Layers.Layers() {
		fmt.Println("\t" + l.String())
	}
	return cfgErr
}

/*
	console progress sink
*/
type consoleProgress struct {
	start time.Time
	quiet bool
}

func (p *consoleProgress) Event(s string) {
	if p.quiet {
		return
	}
	fmt.Println(s)
}

func (p *consoleProgress) Done() {
	if p.quiet {
		return
	}
	timeInfo(p.start)
	fmt.Println("conversion finished")
}

/*
	overwrite confirmation
*/
type promptConfirmer struct {
	policy string
	in     *bufio.Reader
	out    io.Writer
	all    bool
}

func newConfirmer(policy string, in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{policy: policy, in: bufio.NewReader(in), out: out}
}

// Confirm asks whether an existing file may be replaced. An "all" answer
// holds for the rest of the run.
func (pc *promptConfirmer) Confirm(path string) plotter.Decision {
	switch {
	case pc.policy == configurator.OverwriteAlways, pc.all:
		return plotter.DecisionAll
	case pc.policy == configurator.OverwriteNever:
		return plotter.DecisionNo
	}
	for {
		fmt.Fprintf(pc.out, "%s already exists. Overwrite? [y]es/[n]o/[a]ll: ", path)
		answer, err := pc.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return plotter.DecisionYes
		case "a", "all":
			pc.all = true
			return plotter.DecisionAll
		case "n", "no":
			return plotter.DecisionNo
		}
		if err != nil {
			// no more input
			fmt.Fprintln(pc.out)
			return plotter.DecisionNo
		}
	}
}

func returnAppInfo(verbLevel int) string {
	var header = "DXF to Gerber RS-274-X translation tool\n"
	var version = "Version 0.2.0\n"
	var progDate = "19-Oct-2026\n"
	var retVal = "\n"
	switch verbLevel {
	case 3:
		retVal = header + version + progDate
	case 2:
		retVal = header + version
	case 1:
		retVal = header
	default:
		retVal = "\n"
	}
	return retVal
}

// PrintMemUsage outputs the current, total and OS memory being used. As well as the number
// of garbage collection cycles completed.
func printMemUsage(header string) {
	if !viperConfig.GetBool(configurator.CfgCommonPrintMemoryInfo) {
		return
	}
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	fmt.Println(header)
	fmt.Printf("Alloc = %v KB", bToKb(memStats.Alloc))
	fmt.Printf("\tTotalAlloc = %v KB", bToKb(memStats.TotalAlloc))
	fmt.Printf("\tSys = %v KB", bToKb(memStats.Sys))
	fmt.Printf("\tNumGC = %v\n", memStats.NumGC)
}

func bToKb(b uint64) uint64 {
	return b / 1024
}

// prints "[23:59:04 +2.001] "
func timeInfo(prev time.Time) {
	now := time.Now()
	elapsedSec := time.Since(prev).Seconds()
	fmt.Print("[" + now.Format("15:04:05") + " +" +
		strconv.FormatFloat(elapsedSec, 'f', 3, 64) + "] ")
}

func checkError(err error, exitCode int) {
	if err != nil {
		fmt.Println(err)
		glog.Flush()
		os.Exit(exitCode)
	}
}
