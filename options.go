package harness

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/mcp-harness/bridge"
	"github.com/viant/mcp-harness/scenario"
	"github.com/viant/mcp-harness/schema"
	"github.com/viant/mcp-harness/transport"
)

// Default values applied by Options.Init
const (
	DefaultServiceURL     = "http://127.0.0.1:36363"
	DefaultTimeout        = 10 * time.Second
	DefaultStartupTimeout = 15 * time.Second
	DefaultServiceTimeout = 5 * time.Second
	DefaultThrottle       = time.Second
	DefaultClientName     = "test-client"
	DefaultClientVersion  = "1.0.0"
)

// Options
//
// defines options for a harness run. Precedence is command line, then environment, then config file, then defaults.
type Options struct {
	ConfigURL       string         `yaml:"-" json:"-" short:"c" long:"config" description:"YAML config file"`
	ServiceURL      string         `yaml:"serviceURL,omitempty" json:"serviceURL,omitempty" short:"s" long:"service" env:"HARNESS_SERVICE_URL" description:"service base URL (default: http://127.0.0.1:36363)"`
	Bridge          bridge.Options `yaml:"bridge,omitempty" json:"bridge,omitempty" group:"bridge"`
	ClientName      string         `yaml:"clientName,omitempty" json:"clientName,omitempty" long:"client-name" description:"clientInfo name sent on initialize"`
	ClientVersion   string         `yaml:"clientVersion,omitempty" json:"clientVersion,omitempty" long:"client-version" description:"clientInfo version sent on initialize"`
	ProtocolVersion string         `yaml:"protocolVersion,omitempty" json:"protocolVersion,omitempty" short:"p" long:"protocol" description:"protocol version sent on initialize (default: 2024-11-05)"`
	Timeout         time.Duration  `yaml:"timeout,omitempty" json:"timeout,omitempty" short:"t" long:"timeout" description:"per request response timeout (default: 10s)"`
	StartupTimeout  time.Duration  `yaml:"startupTimeout,omitempty" json:"startupTimeout,omitempty" long:"startup-timeout" description:"initialize response timeout (default: 15s)"`
	ServiceTimeout  time.Duration  `yaml:"serviceTimeout,omitempty" json:"serviceTimeout,omitempty" long:"service-timeout" description:"service HTTP timeout (default: 5s)"`
	Throttle        time.Duration  `yaml:"throttle,omitempty" json:"throttle,omitempty" long:"throttle" description:"pause between scenarios (default: 1s)"`
	NoThrottle      bool           `yaml:"noThrottle,omitempty" json:"noThrottle,omitempty" long:"no-throttle" description:"run scenarios back to back"`
	Scenarios       []string       `yaml:"scenarios,omitempty" json:"scenarios,omitempty" short:"r" long:"scenario" description:"scenario to run (repeatable, default: all)"`
	KeepJobs        bool           `yaml:"keepJobs,omitempty" json:"keepJobs,omitempty" long:"keep-jobs" description:"do not delete jobs created by the harness"`
	JSON            bool           `yaml:"json,omitempty" json:"json,omitempty" long:"json" description:"print the report as JSON"`
	Debug           bool           `yaml:"debug,omitempty" json:"debug,omitempty" short:"d" long:"debug" description:"log every line exchanged with the bridge"`
	List            bool           `yaml:"-" json:"-" short:"l" long:"list" description:"list scenarios and exit"`

	onTransition func(state State)
	onLine       transport.Listener
}

// Init applies defaults
func (o *Options) Init() {
	if o.ServiceURL == "" {
		o.ServiceURL = DefaultServiceURL
	}
	o.Bridge.Init()
	if o.ClientName == "" {
		o.ClientName = DefaultClientName
	}
	if o.ClientVersion == "" {
		o.ClientVersion = DefaultClientVersion
	}
	if o.ProtocolVersion == "" {
		o.ProtocolVersion = schema.ProtocolVersion
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = DefaultStartupTimeout
	}
	if o.ServiceTimeout <= 0 {
		o.ServiceTimeout = DefaultServiceTimeout
	}
	if o.NoThrottle {
		o.Throttle = 0
	} else if o.Throttle <= 0 {
		o.Throttle = DefaultThrottle
	}
}

// Validate reports configuration errors
func (o *Options) Validate() error {
	var problems []string
	if parsed, err := url.Parse(o.ServiceURL); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("invalid service URL %q", o.ServiceURL))
	}
	if strings.TrimSpace(o.Bridge.Command) == "" {
		problems = append(problems, "bridge command was empty")
	}
	for _, env := range o.Bridge.Env {
		if !strings.Contains(env, "=") {
			problems = append(problems, fmt.Sprintf("bridge env %q is not KEY=VALUE", env))
		}
	}
	if _, err := scenario.Select(scenario.Catalog(), o.Scenarios); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// Load reads the config file named by ConfigURL into o. Values already set on o are kept.
func (o *Options) Load(ctx context.Context) error {
	if o.ConfigURL == "" {
		return nil
	}
	location := o.ConfigURL
	if !strings.Contains(location, "://") {
		if abs, err := filepath.Abs(location); err == nil {
			location = abs
		}
	}
	data, err := afs.New().DownloadWithURL(ctx, location)
	if err != nil {
		return &ConfigError{Problems: []string{fmt.Sprintf("failed to read config %v: %v", o.ConfigURL, err)}}
	}
	fromFile := &Options{}
	if err = yaml.Unmarshal(data, fromFile); err != nil {
		return &ConfigError{Problems: []string{fmt.Sprintf("failed to parse config %v: %v", o.ConfigURL, err)}}
	}
	o.merge(fromFile)
	return nil
}

// merge copies values from file into o where o has none.
func (o *Options) merge(file *Options) {
	setString(&o.ServiceURL, file.ServiceURL)
	setString(&o.Bridge.Command, file.Bridge.Command)
	setString(&o.Bridge.Dir, file.Bridge.Dir)
	if len(o.Bridge.Args) == 0 {
		o.Bridge.Args = file.Bridge.Args
	}
	o.Bridge.Env = append(file.Bridge.Env, o.Bridge.Env...)
	setDuration(&o.Bridge.Grace, file.Bridge.Grace)
	setDuration(&o.Bridge.Warmup, file.Bridge.Warmup)
	setString(&o.ClientName, file.ClientName)
	setString(&o.ClientVersion, file.ClientVersion)
	setString(&o.ProtocolVersion, file.ProtocolVersion)
	setDuration(&o.Timeout, file.Timeout)
	setDuration(&o.StartupTimeout, file.StartupTimeout)
	setDuration(&o.ServiceTimeout, file.ServiceTimeout)
	setDuration(&o.Throttle, file.Throttle)
	if len(o.Scenarios) == 0 {
		o.Scenarios = file.Scenarios
	}
	o.NoThrottle = o.NoThrottle || file.NoThrottle
	o.KeepJobs = o.KeepJobs || file.KeepJobs
	o.JSON = o.JSON || file.JSON
	o.Debug = o.Debug || file.Debug
}

func setString(dest *string, value string) {
	if *dest == "" {
		*dest = value
	}
}

func setDuration(dest *time.Duration, value time.Duration) {
	if *dest == 0 {
		*dest = value
	}
}
