package control

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/pkg/errors"
)

// BusName is the original source's D-Bus bus name (org.eruption); the
// control object is exported at /org/eruption/Control under the
// org.eruption.Control interface named in SPEC_FULL.md §6.
const (
	BusName    = "org.eruption"
	ObjectPath = "/org/eruption/Control"
	ifaceName  = "org.eruption.Control"
)

// DBusListener exposes the control-plane surface (LoadScript,
// SwitchProfile, Brightness.Get/Set, EnableSfx.Get/Set) as a session-bus
// object and forwards every call onto a Queue the scheduler drains once
// per tick. It never touches the scheduler's state directly, matching
// spec.md §4.5's "the control-plane listener thread only ever enqueues;
// it never mutates ActiveState".
//
// Grounded on the session-bus object-export pattern in
// other_examples/77f51580_helixml-helix__api-pkg-desktop-desktop.go.go.
type DBusListener struct {
	conn  *dbus.Conn
	queue *Queue
	get   func() (brightness float64, enableSfx bool)
}

// controlObject is the exported D-Bus object; its methods are invoked by
// godbus's reflection-based dispatch and must return (..., *dbus.Error).
type controlObject struct {
	queue *Queue
	get   func() (brightness float64, enableSfx bool)
}

func (o *controlObject) LoadScript(path string) *dbus.Error {
	o.queue.Send(Message{Kind: KindLoadScript, Path: path})
	return nil
}

func (o *controlObject) SwitchProfile(path string) *dbus.Error {
	o.queue.Send(Message{Kind: KindSwitchProfile, Path: path})
	return nil
}

func (o *controlObject) SetBrightness(v float64) *dbus.Error {
	o.queue.Send(Message{Kind: KindSetBrightness, Brightness: v})
	return nil
}

func (o *controlObject) GetBrightness() (float64, *dbus.Error) {
	brightness, _ := o.get()
	return brightness, nil
}

func (o *controlObject) SetEnableSfx(v bool) *dbus.Error {
	o.queue.Send(Message{Kind: KindSetEnableSfx, EnableSfx: v})
	return nil
}

func (o *controlObject) GetEnableSfx() (bool, *dbus.Error) {
	_, enableSfx := o.get()
	return enableSfx, nil
}

// NewDBusListener connects to the session bus, claims BusName and exports
// the control object at ObjectPath. get is called synchronously from the
// D-Bus dispatch goroutine to answer Get* calls, and must not block; the
// scheduler should supply a cheap ActiveState read.
func NewDBusListener(queue *Queue, get func() (brightness float64, enableSfx bool)) (*DBusListener, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connecting to session bus")
	}

	obj := &controlObject{queue: queue, get: get}
	if err := conn.Export(obj, ObjectPath, ifaceName); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "exporting control object")
	}

	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: ifaceName,
				Methods: []introspect.Method{
					{Name: "LoadScript", Args: []introspect.Arg{
						{Name: "path", Type: "s", Direction: "in"},
					}},
					{Name: "SwitchProfile", Args: []introspect.Arg{
						{Name: "path", Type: "s", Direction: "in"},
					}},
					{Name: "SetBrightness", Args: []introspect.Arg{
						{Name: "value", Type: "d", Direction: "in"},
					}},
					{Name: "GetBrightness", Args: []introspect.Arg{
						{Name: "value", Type: "d", Direction: "out"},
					}},
					{Name: "SetEnableSfx", Args: []introspect.Arg{
						{Name: "value", Type: "b", Direction: "in"},
					}},
					{Name: "GetEnableSfx", Args: []introspect.Arg{
						{Name: "value", Type: "b", Direction: "out"},
					}},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "exporting introspection data")
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "requesting bus name")
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errors.Errorf("bus name %q already owned", BusName)
	}

	return &DBusListener{conn: conn, queue: queue, get: get}, nil
}

// Close releases the session-bus connection.
func (l *DBusListener) Close() error {
	return l.conn.Close()
}
