// Package hooks is the boundary to the injection component: a table of
// named replacement functions and the Installer that wires them into the
// running title.
package hooks

import (
	"context"
	"net/netip"
	"sync"

	"github.com/aethiopicuschan/liveless/qos"
	"github.com/aethiopicuschan/liveless/session"
	"github.com/aethiopicuschan/liveless/signin"
	"github.com/aethiopicuschan/liveless/xnet"
)

// Table holds the replacement for every intercepted call. A nil entry
// leaves the original call in place.
type Table struct {
	// Base group, installed whenever the layer activates.
	SocketOptions    func(sockType, protocol int) SocketParams
	UseSecureSockets func() bool
	SigninInfo       func(signin.Info) signin.Info
	SigninState      func(signin.State) signin.State
	CheckPrivilege   func(signin.Privilege) bool

	// Liveless group.
	SessionCreate     func(ctx context.Context) error
	SessionJoinRemote func(ctx context.Context) error
	SessionModify     func(ctx context.Context) error
	SessionSearch     func(ctx context.Context, q session.Query) session.SearchResult
	NetConnect        func(ctx context.Context) error
	RegisterKey       func(ctx context.Context) error
	UnregisterKey     func(ctx context.Context) error
	UnregisterInAddr  func(ctx context.Context) error
	TitleXnAddr       func(local xnet.XnAddr) xnet.XnAddr
	XnAddrToInAddr    func(x xnet.XnAddr) netip.Addr
	QosLookup         func(targets []xnet.XnAddr, upstream *qos.Result) *qos.Result

	// GoCentral asks the installer for the title's own online-service
	// patches. They carry no behavior of their own.
	GoCentral bool
}

// Names lists the installed replacements in a stable order.
func (t *Table) Names() []string {
	entries := []struct {
		name string
		set  bool
	}{
		{"socket_options", t.SocketOptions != nil},
		{"use_secure_sockets", t.UseSecureSockets != nil},
		{"signin_info", t.SigninInfo != nil},
		{"signin_state", t.SigninState != nil},
		{"check_privilege", t.CheckPrivilege != nil},
		{"session_create", t.SessionCreate != nil},
		{"session_join_remote", t.SessionJoinRemote != nil},
		{"session_modify", t.SessionModify != nil},
		{"session_search", t.SessionSearch != nil},
		{"net_connect", t.NetConnect != nil},
		{"register_key", t.RegisterKey != nil},
		{"unregister_key", t.UnregisterKey != nil},
		{"unregister_inaddr", t.UnregisterInAddr != nil},
		{"title_xnaddr", t.TitleXnAddr != nil},
		{"xnaddr_to_inaddr", t.XnAddrToInAddr != nil},
		{"qos_lookup", t.QosLookup != nil},
	}
	var names []string
	for _, e := range entries {
		if e.set {
			names = append(names, e.name)
		}
	}
	return names
}

// Succeed is the replacement for calls that only need to report success.
func Succeed(context.Context) error { return nil }

// Installer wires a Table into the running title.
type Installer interface {
	Install(ctx context.Context, t *Table) error
}

// InstallerFunc adapts a function to Installer.
type InstallerFunc func(ctx context.Context, t *Table) error

func (f InstallerFunc) Install(ctx context.Context, t *Table) error { return f(ctx, t) }

// Recorder is an Installer that keeps the table it was given. It stands in
// for the injection component in dry runs and tests.
type Recorder struct {
	mu    sync.Mutex
	table *Table
	count int
}

func (r *Recorder) Install(_ context.Context, t *Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = t
	r.count++
	return nil
}

// Table returns the last installed table, or nil.
func (r *Recorder) Table() *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table
}

// Installs returns how many times Install was called.
func (r *Recorder) Installs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
