package coordinator

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"JuliaRenderer/misc"
	"JuliaRenderer/pool"
)

type Settings struct {
	logger bslogger.Logger

	CacheCapacity uint64
	CacheTTL      time.Duration
	HeartBeat     time.Duration
	Pool          pool.Settings
	ServerAddress string
	Threads       int
	Transport     Transport
}

// NewSettings loads settings from a json file. An empty file name gives the defaults.
func NewSettings(settingsFile string) Settings {
	s := Settings{
		logger: misc.NewLogger("CoordinatorSettings"),
	}
	if settingsFile != "" {
		err, fileBytes := misc.ReadFile(settingsFile)
		misc.CheckError(err, s.logger, misc.Fatal)
		misc.CheckError(json.Unmarshal(fileBytes, &s), s.logger, misc.Fatal)
	}
	misc.CheckError(s.Verify(), s.logger, misc.Fatal)
	s.logger.Debug(s.String())
	return s
}

func (s *Settings) String() string {
	output := "\nCoordinator settings\n"
	output += fmt.Sprintf("My Address: %s\n", s.ServerAddress)
	output += fmt.Sprintf("Transport: %s\n", s.Transport)
	output += fmt.Sprintf("Threads: %d\n", s.Threads)
	output += fmt.Sprintf("Cache: %d images for %s\n", s.CacheCapacity, s.CacheTTL)
	output += fmt.Sprintf("Heart Beat: %s", s.HeartBeat)
	output += s.Pool.String()
	return output
}

func (s *Settings) Verify() error {
	if s.CacheCapacity == 0 {
		s.CacheCapacity = 16
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = 10 * time.Minute
	}
	if s.HeartBeat <= 0 {
		s.HeartBeat = 30 * time.Second
	}
	if s.ServerAddress == "" {
		s.ServerAddress = fmt.Sprintf("%s:%s", misc.GetLocalAddress(), "51000")
	}
	if s.Threads <= 0 {
		s.Threads = runtime.NumCPU()
	}
	if s.Transport < TCP || s.Transport > HTTP {
		s.Transport = TCP
	}
	return s.Pool.Verify()
}
