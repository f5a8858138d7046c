package bridge

import "time"

// Options configures how the bridge process is launched.
type Options struct {
	Command string        `short:"b" long:"bridge" env:"HARNESS_BRIDGE" description:"bridge executable (default: ./xiaohu-mcp-stdio)" yaml:"command"`
	Args    []string      `long:"bridge-arg" description:"bridge argument (repeatable)" yaml:"args"`
	Env     []string      `long:"bridge-env" description:"extra bridge environment KEY=VALUE (repeatable)" yaml:"env"`
	Dir     string        `long:"bridge-dir" description:"bridge working directory" yaml:"dir"`
	Grace   time.Duration `long:"grace" description:"time to wait after SIGTERM before killing the bridge (default: 3s)" yaml:"grace"`
	Warmup  time.Duration `long:"warmup" description:"fixed delay after spawning the bridge" yaml:"warmup"`
}

// DefaultCommand is the bridge executable used when none is configured.
const DefaultCommand = "./xiaohu-mcp-stdio"

// Init applies defaults
func (o *Options) Init() {
	if o.Command == "" {
		o.Command = DefaultCommand
	}
	if o.Grace <= 0 {
		o.Grace = defaultGrace
	}
}

// Option represents supervisor option
type Option func(s *Supervisor)

// WithOptions sets launch options
func WithOptions(options *Options) Option {
	return func(s *Supervisor) {
		if options != nil {
			s.options = *options
		}
	}
}

// WithCommand sets the bridge executable and its arguments
func WithCommand(command string, args ...string) Option {
	return func(s *Supervisor) {
		s.options.Command = command
		s.options.Args = args
	}
}

// WithEnv adds KEY=VALUE pairs to the inherited environment
func WithEnv(env ...string) Option {
	return func(s *Supervisor) {
		s.options.Env = append(s.options.Env, env...)
	}
}

// WithDir sets the working directory
func WithDir(dir string) Option {
	return func(s *Supervisor) {
		s.options.Dir = dir
	}
}

// WithGrace sets the SIGTERM grace period
func WithGrace(grace time.Duration) Option {
	return func(s *Supervisor) {
		s.options.Grace = grace
	}
}

// WithWarmup sets a fixed delay applied after spawn
func WithWarmup(warmup time.Duration) Option {
	return func(s *Supervisor) {
		s.options.Warmup = warmup
	}
}

// WithStderrTail sets how many trailing stderr lines are retained
func WithStderrTail(lines int) Option {
	return func(s *Supervisor) {
		if lines > 0 {
			s.tailSize = lines
		}
	}
}
