package docker

import "strings"

// ShortID truncates a 64-character object ID to the familiar 12
// characters.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// ContainerSummary is one element of the container list endpoint.
type ContainerSummary struct {
	ID      string   `json:"Id"`
	Names   []string `json:"Names"`
	Image   string   `json:"Image"`
	ImageID string   `json:"ImageID"`
	Command string   `json:"Command"`
	Created int64    `json:"Created"`
	State   string   `json:"State"`
	Status  string   `json:"Status"`
	Labels  map[string]string `json:"Labels"`
	Ports   []Port            `json:"Ports"`
}

// Name returns the primary name without the daemon's leading slash.
func (c ContainerSummary) Name() string {
	if len(c.Names) == 0 {
		return ShortID(c.ID)
	}
	return strings.TrimPrefix(c.Names[0], "/")
}

// Port is a published or exposed port on a listed container.
type Port struct {
	IP          string `json:"IP,omitempty"`
	PrivatePort int    `json:"PrivatePort"`
	PublicPort  int    `json:"PublicPort,omitempty"`
	Type        string `json:"Type"`
}

// ContainerConfig is the container-level half of a create request and
// the Config block of an inspect response.
type ContainerConfig struct {
	Hostname     string              `json:"Hostname,omitempty"`
	User         string              `json:"User,omitempty"`
	AttachStdin  bool                `json:"AttachStdin"`
	AttachStdout bool                `json:"AttachStdout"`
	AttachStderr bool                `json:"AttachStderr"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts,omitempty"`
	Tty          bool                `json:"Tty"`
	OpenStdin    bool                `json:"OpenStdin"`
	StdinOnce    bool                `json:"StdinOnce"`
	Env          []string            `json:"Env,omitempty"`
	Cmd          []string            `json:"Cmd,omitempty"`
	Image        string              `json:"Image"`
	WorkingDir   string              `json:"WorkingDir,omitempty"`
	Entrypoint   []string            `json:"Entrypoint,omitempty"`
	Labels       map[string]string   `json:"Labels,omitempty"`
}

// HostConfig is the host-level half of a create request.
type HostConfig struct {
	Binds        []string                 `json:"Binds,omitempty"`
	NetworkMode  string                   `json:"NetworkMode,omitempty"`
	PortBindings map[string][]PortBinding `json:"PortBindings,omitempty"`
	AutoRemove   bool                     `json:"AutoRemove,omitempty"`
	ExtraHosts   []string                 `json:"ExtraHosts,omitempty"`
	Privileged   bool                     `json:"Privileged,omitempty"`
}

// PortBinding maps one exposed container port to a host port.
type PortBinding struct {
	HostIP   string `json:"HostIp,omitempty"`
	HostPort string `json:"HostPort"`
}

// CreateOptions bundles everything /containers/create accepts.
type CreateOptions struct {
	// Name is the container name; empty lets the daemon pick one.
	Name string
	// Platform requests an explicit platform such as "linux/amd64".
	Platform string

	Config     ContainerConfig
	HostConfig *HostConfig
}

// CreateResponse is the daemon's answer to a successful create.
type CreateResponse struct {
	ID       string   `json:"Id"`
	Warnings []string `json:"Warnings"`
}

// ContainerState is the State block of an inspect response.
type ContainerState struct {
	Status     string `json:"Status"`
	Running    bool   `json:"Running"`
	Paused     bool   `json:"Paused"`
	Restarting bool   `json:"Restarting"`
	OOMKilled  bool   `json:"OOMKilled"`
	Dead       bool   `json:"Dead"`
	Pid        int    `json:"Pid"`
	ExitCode   int    `json:"ExitCode"`
	StartedAt  string `json:"StartedAt"`
	FinishedAt string `json:"FinishedAt"`
}

// ContainerDetail is the subset of an inspect response the
// application reads.
type ContainerDetail struct {
	ID      string          `json:"Id"`
	Name    string          `json:"Name"`
	Created string          `json:"Created"`
	Path    string          `json:"Path"`
	Args    []string        `json:"Args"`
	Image   string          `json:"Image"`
	State   ContainerState  `json:"State"`
	Config  ContainerConfig `json:"Config"`
	NetworkSettings struct {
		IPAddress string `json:"IPAddress"`
		Networks  map[string]struct {
			IPAddress string `json:"IPAddress"`
			Gateway   string `json:"Gateway"`
		} `json:"Networks"`
	} `json:"NetworkSettings"`
}

// WaitResponse reports a container's exit.
type WaitResponse struct {
	StatusCode int64 `json:"StatusCode"`
	Error      *struct {
		Message string `json:"Message"`
	} `json:"Error"`
}

// TopResponse lists the processes running inside a container.
type TopResponse struct {
	Titles    []string   `json:"Titles"`
	Processes [][]string `json:"Processes"`
}

// ListOptions filters the container list endpoint.
type ListOptions struct {
	// All includes stopped containers.
	All bool
	// Limit caps the number of results; zero means no cap.
	Limit int
	// Filters is the daemon's filter map, e.g. {"label": {"a=b"}}.
	Filters map[string][]string
}

// LogsOptions shapes a log request. Follow keeps the stream open and
// makes the operation long-lived.
type LogsOptions struct {
	Stdout     bool
	Stderr     bool
	Follow     bool
	Timestamps bool
	// Tail limits output to the last N lines; "" or "all" means
	// everything.
	Tail string
	// Since is a Unix timestamp or duration like "10m".
	Since string
}

// RemoveOptions shapes a container remove request.
type RemoveOptions struct {
	Force         bool
	RemoveVolumes bool
}

// ExecOptions configures /containers/{id}/exec.
type ExecOptions struct {
	Cmd          []string `json:"Cmd"`
	AttachStdin  bool     `json:"AttachStdin"`
	AttachStdout bool     `json:"AttachStdout"`
	AttachStderr bool     `json:"AttachStderr"`
	Tty          bool     `json:"Tty"`
	Privileged   bool     `json:"Privileged,omitempty"`
	User         string   `json:"User,omitempty"`
	WorkingDir   string   `json:"WorkingDir,omitempty"`
	Env          []string `json:"Env,omitempty"`
}

// ExecDetail is the subset of an exec inspect response the
// application reads.
type ExecDetail struct {
	ID       string `json:"ID"`
	Running  bool   `json:"Running"`
	ExitCode int    `json:"ExitCode"`
	Pid      int    `json:"Pid"`
}

// AttachOptions selects which streams an attach carries.
type AttachOptions struct {
	Stream bool
	Stdin  bool
	Stdout bool
	Stderr bool
	// Logs replays buffered output before streaming.
	Logs bool
	// Tty must mirror the container's TTY setting; it decides whether
	// the attached stream is multiplexed.
	Tty bool
}

// ImageSummary is one element of the image list endpoint.
type ImageSummary struct {
	ID       string   `json:"Id"`
	ParentID string   `json:"ParentId"`
	RepoTags []string `json:"RepoTags"`
	Created  int64    `json:"Created"`
	Size     int64    `json:"Size"`
	Labels   map[string]string `json:"Labels"`
}

// ImageDetail is the subset of an image inspect response the
// application reads.
type ImageDetail struct {
	ID           string   `json:"Id"`
	RepoTags     []string `json:"RepoTags"`
	Created      string   `json:"Created"`
	Size         int64    `json:"Size"`
	Architecture string   `json:"Architecture"`
	Os           string   `json:"Os"`
	Author       string   `json:"Author"`
}

// PullProgress is one line of the image pull progress stream.
type PullProgress struct {
	Status   string `json:"status"`
	ID       string `json:"id"`
	Progress string `json:"progress"`
	Error    string `json:"error"`
}

// BuildOptions configures an image build.
type BuildOptions struct {
	// Tags name the resulting image, repo:tag form.
	Tags []string
	// Dockerfile is the path of the Dockerfile within the build
	// context; empty means "Dockerfile".
	Dockerfile string
	// BuildArgs are --build-arg values.
	BuildArgs map[string]string
	// Remove deletes intermediate containers after a successful build.
	Remove bool
	// NoCache disables the build cache.
	NoCache bool
	// Platform requests an explicit target platform.
	Platform string
}

// NetworkSummary is one element of the network list endpoint.
type NetworkSummary struct {
	ID         string            `json:"Id"`
	Name       string            `json:"Name"`
	Created    string            `json:"Created"`
	Driver     string            `json:"Driver"`
	Scope      string            `json:"Scope"`
	Internal   bool              `json:"Internal"`
	Attachable bool              `json:"Attachable"`
	Labels     map[string]string `json:"Labels"`
}

// NetworkDetail adds the per-container endpoint map to a summary.
type NetworkDetail struct {
	NetworkSummary
	Containers map[string]struct {
		Name        string `json:"Name"`
		IPv4Address string `json:"IPv4Address"`
	} `json:"Containers"`
	Options map[string]string `json:"Options"`
}

// NetworkCreateOptions configures /networks/create.
type NetworkCreateOptions struct {
	Name       string            `json:"Name"`
	Driver     string            `json:"Driver,omitempty"`
	Internal   bool              `json:"Internal,omitempty"`
	Attachable bool              `json:"Attachable,omitempty"`
	Options    map[string]string `json:"Options,omitempty"`
	Labels     map[string]string `json:"Labels,omitempty"`
}

// NetworkCreateResponse is the daemon's answer to a network create.
type NetworkCreateResponse struct {
	ID      string `json:"Id"`
	Warning string `json:"Warning"`
}

// VersionInfo is the daemon's version report.
type VersionInfo struct {
	Version       string `json:"Version"`
	APIVersion    string `json:"ApiVersion"`
	MinAPIVersion string `json:"MinAPIVersion"`
	GitCommit     string `json:"GitCommit"`
	GoVersion     string `json:"GoVersion"`
	Os            string `json:"Os"`
	Arch          string `json:"Arch"`
	KernelVersion string `json:"KernelVersion"`
	BuildTime     string `json:"BuildTime"`
}

// SystemInfo is the subset of the daemon's info report the
// application shows.
type SystemInfo struct {
	ID                string `json:"ID"`
	Containers        int    `json:"Containers"`
	ContainersRunning int    `json:"ContainersRunning"`
	ContainersPaused  int    `json:"ContainersPaused"`
	ContainersStopped int    `json:"ContainersStopped"`
	Images            int    `json:"Images"`
	Driver            string `json:"Driver"`
	OperatingSystem   string `json:"OperatingSystem"`
	Architecture      string `json:"Architecture"`
	NCPU              int    `json:"NCPU"`
	MemTotal          int64  `json:"MemTotal"`
	Name              string `json:"Name"`
	ServerVersion     string `json:"ServerVersion"`
}

// EventMessage is one object of the /events stream.
type EventMessage struct {
	Type   string `json:"Type"`
	Action string `json:"Action"`
	Status string `json:"status,omitempty"`
	ID     string `json:"id,omitempty"`
	Actor  struct {
		ID         string            `json:"ID"`
		Attributes map[string]string `json:"Attributes"`
	} `json:"Actor"`
	Time     int64 `json:"time"`
	TimeNano int64 `json:"timeNano"`
}

// EventsOptions filters the event stream.
type EventsOptions struct {
	// Since and Until are Unix timestamps or durations.
	Since   string
	Until   string
	Filters map[string][]string
}

// StatsSnapshot is one sample of the container stats stream, reduced
// to the counters needed to derive CPU and memory usage.
type StatsSnapshot struct {
	Read     string `json:"read"`
	CPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
		OnlineCPUs  uint32 `json:"online_cpus"`
	} `json:"cpu_stats"`
	PreCPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
	} `json:"precpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Limit uint64 `json:"limit"`
	} `json:"memory_stats"`
	Networks map[string]struct {
		RxBytes uint64 `json:"rx_bytes"`
		TxBytes uint64 `json:"tx_bytes"`
	} `json:"networks"`
}

// CPUPercent derives CPU usage from the sample's current and previous
// counters, the same way the docker CLI does.
func (s StatsSnapshot) CPUPercent() float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)
	if cpuDelta <= 0 || sysDelta <= 0 {
		return 0
	}
	cpus := float64(s.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = 1
	}
	return cpuDelta / sysDelta * cpus * 100
}
