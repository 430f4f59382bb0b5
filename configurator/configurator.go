package configurator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"dxf2gerber/layers"
)

const (
	CfgCommonPrintStatistic     string = "common.PrintStatistic"
	CfgCommonPrintLayersInfo    string = "common.PrintLayersInfo"
	CfgCommonPrintAperturesInfo string = "common.PrintAperturesInfo"
	CfgCommonPrintMemoryInfo    string = "common.PrintMemoryInfo"

	CfgOutputDir         string = "output.Dir"
	CfgOutputExtension   string = "output.Extension"
	CfgOutputOverwrite   string = "output.Overwrite"
	CfgOutputMetricsFile string = "output.MetricsFile"

	CfgLayersDefaultThickness string = "layers.DefaultThickness"
	CfgLayersMinThickness     string = "layers.MinThickness"
	CfgLayersMaxThickness     string = "layers.MaxThickness"

	CfgRendererGeneratePNG string = "renderer.GeneratePNG"
	CfgRendererDPI         string = "renderer.DPI"
	CfgRendererMargin      string = "renderer.Margin"

	// [[layer]] tables
	CfgLayerOverrides string = "layer"

	EnvPrefix = "DXF2GERBER"
)

// Overwrite policies
const (
	OverwriteAsk    = "ask"
	OverwriteAlways = "always"
	OverwriteNever  = "never"
)

var ErrBadValue = errors.New("bad configuration value")

func SetDefaults(v *viper.Viper) {
	v.SetConfigName("config") // no need to include file extension
	v.AddConfigPath(".")      // set the path of your config file
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// diagnostic messages
	v.SetDefault(CfgCommonPrintStatistic, true)
	v.SetDefault(CfgCommonPrintLayersInfo, false)
	v.SetDefault(CfgCommonPrintAperturesInfo, false)
	v.SetDefault(CfgCommonPrintMemoryInfo, false)

	//
	v.SetDefault(CfgOutputDir, "")
	v.SetDefault(CfgOutputExtension, layers.DefaultExtension)
	v.SetDefault(CfgOutputOverwrite, OverwriteAsk)
	v.SetDefault(CfgOutputMetricsFile, "")

	//
	v.SetDefault(CfgLayersDefaultThickness, layers.DefaultThickness)
	v.SetDefault(CfgLayersMinThickness, layers.MinThickness)
	v.SetDefault(CfgLayersMaxThickness, layers.MaxThickness)

	//
	v.SetDefault(CfgRendererGeneratePNG, false)
	v.SetDefault(CfgRendererDPI, 200)
	v.SetDefault(CfgRendererMargin, 0.1)
}

// ProcessConfigFile reads config.toml. A missing file is not an error.
func ProcessConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// Overwrite returns the validated overwrite policy
func Overwrite(v *viper.Viper) (string, error) {
	p := strings.ToLower(strings.TrimSpace(v.GetString(CfgOutputOverwrite)))
	switch p {
	case OverwriteAsk, OverwriteAlways, OverwriteNever:
		return p, nil
	}
	return OverwriteAsk, fmt.Errorf("%w: %s = %q", ErrBadValue, CfgOutputOverwrite, p)
}

// LayerOverrides decodes the [[layer]] tables of the config file
func LayerOverrides(v *viper.Viper) ([]layers.Override, error) {
	if !v.IsSet(CfgLayerOverrides) {
		return nil, nil
	}
	var ovs []layers.Override
	if err := v.UnmarshalKey(CfgLayerOverrides, &ovs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadValue, CfgLayerOverrides, err)
	}
	return ovs, nil
}

// ConfigureCatalog applies thickness limits and layer overrides to a catalog
func ConfigureCatalog(v *viper.Viper, c *layers.Catalog) error {
	c.SetThicknessLimits(
		v.GetFloat64(CfgLayersDefaultThickness),
		v.GetFloat64(CfgLayersMinThickness),
		v.GetFloat64(CfgLayersMaxThickness),
	)
	ovs, err := LayerOverrides(v)
	if err != nil {
		return err
	}
	return c.ApplyOverrides(ovs)
}

func DiagnosticAllCfgPrint(v *viper.Viper) {
	c := v.AllSettings()
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Println(key, ":", c[key])
	}
	fmt.Println()
}
