package supervisor

import (
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cuemby/netresolved/pkg/backend"
	"github.com/cuemby/netresolved/pkg/config"
	"github.com/cuemby/netresolved/pkg/dnserr"
	"github.com/cuemby/netresolved/pkg/dnsengine"
	"github.com/cuemby/netresolved/pkg/log"
	"github.com/cuemby/netresolved/pkg/metrics"
	"github.com/cuemby/netresolved/pkg/procio"
	"github.com/cuemby/netresolved/pkg/resolvconf"
)

// Options configures a Supervisor's single run of the daemon.
type Options struct {
	ConfigDir          string
	Port               int
	FilterSearchDomain string
	NoProxy            bool
	ResolverFile       string
}

// Supervisor owns the process-wide state a single daemon run needs: the
// atomic backend snapshot, the shared host upstream list, and the
// per-family listener registries it reconciles on every reload.
type Supervisor struct {
	opts Options

	backend       atomic.Pointer[backend.Snapshot]
	hostUpstreams *dnsengine.HostUpstreams

	mu sync.Mutex
	v4 map[dnsengine.Identity]*dnsengine.Listener
	v6 map[dnsengine.Identity]*dnsengine.Listener

	pidFile  *procio.PIDFile
	watcher  *resolvconf.Watcher
	planDone bool
}

// New creates a Supervisor for opts. Call Run to start it.
func New(opts Options) *Supervisor {
	return &Supervisor{
		opts: opts,
		v4:   make(map[dnsengine.Identity]*dnsengine.Listener),
		v6:   make(map[dnsengine.Identity]*dnsengine.Listener),
	}
}

// Run parses the configuration directory, binds every listener, signals
// readiness on readyPipe (nil is fine, see procio.SignalReady), detaches
// stdio, then runs the reload/resolver-watch event loop until the process
// is asked to stop or the configuration becomes empty. On a stop signal it
// stops every listener, removes the PID file and returns the result of
// that removal (nil on success). On an empty configuration it removes the
// PID file and exits the process itself, with status 0 (or 1 if the
// removal fails). Any error returned before the event loop starts is a
// startup failure.
func (s *Supervisor) Run(stop <-chan os.Signal, readyPipe *os.File) error {
	if err := s.loadAndReconcile(); err != nil {
		return err
	}

	pidFile, err := procio.WritePIDFile(procio.Path(s.opts.ConfigDir, config.PIDFileName))
	if err != nil {
		return err
	}
	s.pidFile = pidFile

	if err := procio.SignalReady(readyPipe); err != nil {
		return err
	}
	if err := procio.DetachStdio(); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to detach stdio, continuing attached")
	}

	if s.planDone {
		return s.emptyShutdown()
	}

	watcher, err := resolvconf.Watch(s.opts.ResolverFile)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("could not watch resolver file, reload will not pick up edits to it")
	}
	s.watcher = watcher

	return s.eventLoop(stop)
}

func (s *Supervisor) eventLoop(stop <-chan os.Signal) error {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	var resolverEvents <-chan struct{}
	if s.watcher != nil {
		resolverEvents = s.watcher.Events
	}

	for {
		select {
		case <-stop:
			return s.shutdown()

		case <-sighup:
			if err := s.loadAndReconcile(); err != nil {
				log.Logger.Error().Err(err).Msg("reload failed, previous configuration still serving")
				continue
			}
			if s.planDone {
				return s.emptyShutdown()
			}

		case _, ok := <-resolverEvents:
			if !ok {
				resolverEvents = nil
				continue
			}
			s.reloadHostUpstreams()
		}
	}
}

func (s *Supervisor) loadAndReconcile() error {
	snap, plan, err := config.Parse(s.opts.ConfigDir, s.opts.FilterSearchDomain)
	if err != nil {
		return err
	}
	s.backend.Store(snap)

	if s.hostUpstreams == nil {
		ips, err := resolvconf.Parse(s.opts.ResolverFile)
		if err != nil {
			log.Logger.Warn().Err(err).Msg("could not read resolver file, starting with no host upstreams")
		}
		s.hostUpstreams = dnsengine.NewHostUpstreams(ips)
	}

	timer := metrics.NewTimer()
	err = s.reconcile(plan)
	timer.ObserveDuration(metrics.ReconcileDuration)
	metrics.ReconcileCyclesTotal.Inc()
	if err != nil {
		metrics.ReconcileErrorsTotal.Inc()
		log.Logger.Error().Err(err).Msg("reconcile completed with listener bind failures")
	}

	s.planDone = plan.Empty()
	return nil
}

func (s *Supervisor) reloadHostUpstreams() {
	ips, err := resolvconf.Parse(s.opts.ResolverFile)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("resolver file changed but could not be re-read, keeping previous list")
		return
	}
	s.hostUpstreams.Set(ips)
}

// reconcile brings both family registries in line with plan, v4 first and
// then v6. Within each family, every listener not in the new plan is
// stopped before any new one is started.
func (s *Supervisor) reconcile(plan *config.ListenPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var aggErr dnserr.List
	if err := s.reconcileFamily(s.v4, plan.V4, "v4"); err != nil {
		aggErr.Add(err)
	}
	if err := s.reconcileFamily(s.v6, plan.V6, "v6"); err != nil {
		aggErr.Add(err)
	}
	return aggErr.ErrOrNil()
}

func (s *Supervisor) reconcileFamily(registry map[dnsengine.Identity]*dnsengine.Listener, want map[string][]net.IP, family string) error {
	expected := make(map[dnsengine.Identity]bool)
	for network, ips := range want {
		for _, ip := range ips {
			expected[dnsengine.Identity{Network: network, ListenIP: ip}] = true
		}
	}

	for id, listener := range registry {
		if expected[id] {
			continue
		}
		listener.Stop()
		delete(registry, id)
		log.Logger.Info().Str("component", "supervisor").Str("identity", id.String()).Msg("listener stopped")
	}

	var toStart []dnsengine.Identity
	for id := range expected {
		if _, running := registry[id]; !running {
			toStart = append(toStart, id)
		}
	}

	var mu sync.Mutex
	var aggErr dnserr.List
	g := new(errgroup.Group)
	for _, id := range toStart {
		id := id
		g.Go(func() error {
			listener, err := dnsengine.Bind(dnsengine.Config{
				Network:       id.Network,
				ListenIP:      id.ListenIP,
				Port:          s.opts.Port,
				Backend:       &s.backend,
				HostUpstreams: s.hostUpstreams,
				NoProxy:       s.opts.NoProxy,
			})
			if err != nil {
				mu.Lock()
				aggErr.Add(err)
				mu.Unlock()
				return nil
			}
			listener.Start()

			mu.Lock()
			registry[id] = listener
			mu.Unlock()

			log.Logger.Info().Str("component", "supervisor").Str("identity", id.String()).Msg("listener bound")
			return nil
		})
	}
	_ = g.Wait()

	metrics.ListenersActive.WithLabelValues(family).Set(float64(len(registry)))
	return aggErr.ErrOrNil()
}

// shutdown stops every listener and removes the PID file, for a normal
// signal-triggered exit.
func (s *Supervisor) shutdown() error {
	s.mu.Lock()
	for id, listener := range s.v4 {
		listener.Stop()
		delete(s.v4, id)
	}
	for id, listener := range s.v6 {
		listener.Stop()
		delete(s.v6, id)
	}
	s.mu.Unlock()

	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.pidFile != nil {
		return s.pidFile.Remove()
	}
	return nil
}

// emptyShutdown implements the empty-config shutdown rule: remove the PID
// file and exit the process with status 0.
func (s *Supervisor) emptyShutdown() error {
	log.Logger.Info().Str("component", "supervisor").Msg("configuration is empty, shutting down")
	if s.watcher != nil {
		s.watcher.Close()
	}
	if err := s.pidFile.Remove(); err != nil {
		log.Logger.Error().Err(err).Msg("failed to remove PID file during empty-config shutdown")
		os.Exit(1)
	}
	os.Exit(0)
	return nil
}
