package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultArch           = "arm32v7"
	defaultInstallDir     = "/opt/genie"
	defaultConfigFileName = "geniectl.toml"

	envConfigPath     = "GENIECTL_CONFIG"
	envRepo           = "GENIECTL_REPO"
	envConnectTimeout = "GENIECTL_CONNECT_TIMEOUT"
)

// Config is built once at process start and handed by pointer to every
// component that needs path or naming information. Nothing mutates it after
// Load returns.
type Config struct {
	Name      string
	Paths     Paths
	Device    Device
	Container Container
	SSH       SSH
	Contexts  Contexts
	// KillPatterns are the command-line patterns identifying the client's
	// processes on the device, in report order.
	KillPatterns []KillPattern
}

// Paths are host-side locations, all absolute.
type Paths struct {
	Repo       string
	Out        string
	OutLib     string
	OutAssets  string
	OutConfig  string
	OutExe     string
	OutTools   string
	Scripts    string
	Dockerfile string
	Launch     string
	Asoundrc   string
	// Profiles holds the per-profile config.ini templates
	// (<Profiles>/<name>/config.ini).
	Profiles string
	Tmp      string
}

// Device describes the install layout on the target.
type Device struct {
	NetworkInterface string
	Install          string
	Lib              string
	Assets           string
	Config           string
	Exe              string
	Launch           string
	Asoundrc         string
	WifiConfig       string
	ResolvConf       string
	Log              string
	ToolsBin         string
	TmpBin           string
	Tmp              string
	Profile          string
	Parec            string
}

// Container configures the builder image.
type Container struct {
	Name        string
	DefaultArch string
	RepoMount   string
	OutMount    string
}

// Tag returns the builder image tag for arch.
func (c Container) Tag(arch string) string {
	return c.Name + ":" + arch
}

// SSH configures session transports and the native exec client.
type SSH struct {
	// ConnectTimeout bounds connection establishment only.
	ConnectTimeout time.Duration
	User           string
	Port           int
}

// Contexts selects where saved device contexts live.
type Contexts struct {
	// Backend is "git" (local git config of the repository) or "file".
	Backend string
	// File is the TOML store used by the file backend.
	File string
}

const (
	ContextsGit  = "git"
	ContextsFile = "file"
)

// KillPattern names one command-line pattern.
type KillPattern struct {
	Label string `toml:"label"`
	Expr  string `toml:"expr"`
}

// Default returns the built-in configuration rooted at repo.
func Default(repo string) *Config {
	cfg := &Config{
		Name: "genie-client-cpp",
		Paths: Paths{
			Repo: repo,
		},
		Device: Device{
			NetworkInterface: "wlan0",
			Install:          defaultInstallDir,
			Launch:           "/opt/duer/dcslaunch.sh",
			WifiConfig:       "/data/wifi/wpa_supplicant.conf",
			ResolvConf:       "/data/wifi/resolv.conf",
			Log:              "/tmp/genie.log",
			ToolsBin:         "/data/tools/bin",
			Tmp:              "/tmp",
			Profile:          "/etc/profile",
			Parec:            "/usr/bin/parec",
		},
		Container: Container{
			Name:        "genie-builder",
			DefaultArch: defaultArch,
			RepoMount:   "/src",
			OutMount:    "/out",
		},
		SSH: SSH{
			ConnectTimeout: defaultConnectTimeout,
			User:           "root",
			Port:           22,
		},
		Contexts: Contexts{Backend: ContextsGit},
		KillPatterns: []KillPattern{
			{Label: "launcher", Expr: `.*\s/opt/duer/dcslaunch.sh$`},
			{Label: "genie", Expr: `.*/genie$`},
			{Label: "spotifyd", Expr: `^/tmp/spotifyd\s.*`},
			{Label: "pulseaudio", Expr: `.*/pulseaudio\s.*`},
		},
	}
	cfg.finalize()
	return cfg
}

// Load builds a Config from defaults, an optional TOML file and environment
// overrides. An empty path falls back to $GENIECTL_CONFIG and then to
// <repo>/geniectl.toml when that file exists.
func Load(path string) (*Config, error) {
	repo := os.Getenv(envRepo)
	if repo == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		repo = FindRepoRoot(wd)
	}
	repo, err := filepath.Abs(repo)
	if err != nil {
		return nil, fmt.Errorf("resolve repo path: %w", err)
	}

	cfg := Default(repo)

	explicit := path != ""
	if !explicit {
		path = os.Getenv(envConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join(repo, defaultConfigFileName)
	}

	if err := applyFile(cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.finalize()
	return cfg, nil
}

// FindRepoRoot walks up from dir to the first directory holding .git.
// It returns dir itself when none is found.
func FindRepoRoot(dir string) string {
	for cur := dir; ; {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envConnectTimeout); v != "" {
		if dur, err := parseTimeout(v); err == nil {
			cfg.SSH.ConnectTimeout = dur
		} else {
			log.Warn("Ignoring invalid environment value", "var", envConnectTimeout, "value", v, "err", err)
		}
	}
}

// parseTimeout accepts Go durations ("15s") and bare seconds ("15").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		v = strconv.Itoa(secs) + "s"
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if dur <= 0 {
		return 0, errors.New("timeout must be > 0")
	}
	return dur, nil
}

// finalize derives every unset path from its root.
func (c *Config) finalize() {
	p := &c.Paths
	def := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	def(&p.Out, filepath.Join(p.Repo, "out"))
	def(&p.OutLib, filepath.Join(p.Out, "lib"))
	def(&p.OutAssets, filepath.Join(p.Out, "assets"))
	def(&p.OutConfig, filepath.Join(p.Out, "config.ini"))
	def(&p.OutExe, filepath.Join(p.Out, "genie"))
	def(&p.OutTools, filepath.Join(p.Out, "tools"))
	def(&p.Scripts, filepath.Join(p.Repo, "scripts"))
	def(&p.Dockerfile, filepath.Join(p.Scripts, "Dockerfile"))
	def(&p.Launch, filepath.Join(p.Scripts, "launch.sh"))
	def(&p.Asoundrc, filepath.Join(p.Scripts, "asoundrc"))
	def(&p.Profiles, filepath.Join(p.Repo, "config"))
	def(&p.Tmp, filepath.Join(p.Repo, "tmp"))
	def(&c.Contexts.File, filepath.Join(p.Repo, ".geniectl", "contexts.toml"))

	d := &c.Device
	def(&d.Lib, d.Install+"/lib")
	def(&d.Assets, d.Install+"/assets")
	def(&d.Config, d.Install+"/config.ini")
	def(&d.Exe, d.Install+"/genie")
	def(&d.Asoundrc, d.Install+"/.asoundrc")
	def(&d.TmpBin, d.Tmp+"/bin")
}

type fileConfig struct {
	Repo           string        `toml:"repo"`
	ConnectTimeout string        `toml:"connect_timeout"`
	SSHUser        string        `toml:"ssh_user"`
	SSHPort        int           `toml:"ssh_port"`
	Paths          fileLayout    `toml:"paths"`
	Device         fileDevice    `toml:"device"`
	Container      fileContainer `toml:"container"`
	KillPatterns   []KillPattern `toml:"kill_pattern"`
	Contexts       fileContexts  `toml:"contexts"`
}

type fileContexts struct {
	Backend string `toml:"backend"`
	File    string `toml:"file"`
}

type fileLayout struct {
	Out        string `toml:"out"`
	Scripts    string `toml:"scripts"`
	Dockerfile string `toml:"dockerfile"`
	Profiles   string `toml:"profiles"`
}

type fileDevice struct {
	NetworkInterface string `toml:"network_interface"`
	Install          string `toml:"install"`
	Launch           string `toml:"launch"`
	WifiConfig       string `toml:"wifi_config"`
	ResolvConf       string `toml:"resolv_conf"`
	Log              string `toml:"log"`
	ToolsBin         string `toml:"tools_bin"`
}

type fileContainer struct {
	Name        string `toml:"name"`
	DefaultArch string `toml:"default_arch"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw fileConfig
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return err
	}

	set := func(field *string, value string) {
		if value != "" {
			*field = value
		}
	}
	base := filepath.Dir(path)
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	if raw.Repo != "" {
		cfg.Paths.Repo = abs(raw.Repo)
	}
	if raw.ConnectTimeout != "" {
		dur, err := parseTimeout(raw.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.SSH.ConnectTimeout = dur
	}
	set(&cfg.SSH.User, raw.SSHUser)
	if raw.SSHPort < 0 {
		return errors.New("ssh_port must be > 0")
	}
	if raw.SSHPort > 0 {
		cfg.SSH.Port = raw.SSHPort
	}

	// Derived host paths are recomputed from the (possibly new) roots.
	cfg.Paths = Paths{
		Repo:       cfg.Paths.Repo,
		Out:        abs(raw.Paths.Out),
		Scripts:    abs(raw.Paths.Scripts),
		Dockerfile: abs(raw.Paths.Dockerfile),
		Profiles:   abs(raw.Paths.Profiles),
	}

	d := &cfg.Device
	if raw.Device.Install != "" {
		d.Install = raw.Device.Install
		d.Lib, d.Assets, d.Config, d.Exe, d.Asoundrc = "", "", "", "", ""
	}
	set(&d.NetworkInterface, raw.Device.NetworkInterface)
	set(&d.Launch, raw.Device.Launch)
	set(&d.WifiConfig, raw.Device.WifiConfig)
	set(&d.ResolvConf, raw.Device.ResolvConf)
	set(&d.Log, raw.Device.Log)
	set(&d.ToolsBin, raw.Device.ToolsBin)

	set(&cfg.Container.Name, raw.Container.Name)
	set(&cfg.Container.DefaultArch, raw.Container.DefaultArch)

	switch raw.Contexts.Backend {
	case "":
	case ContextsGit, ContextsFile:
		cfg.Contexts.Backend = raw.Contexts.Backend
	default:
		return fmt.Errorf("contexts.backend must be %q or %q, got %q", ContextsGit, ContextsFile, raw.Contexts.Backend)
	}
	cfg.Contexts.File = abs(raw.Contexts.File)

	if len(raw.KillPatterns) > 0 {
		for i, p := range raw.KillPatterns {
			if p.Label == "" || p.Expr == "" {
				return fmt.Errorf("kill_pattern[%d]: label and expr are required", i)
			}
		}
		cfg.KillPatterns = raw.KillPatterns
	}
	return nil
}
