// Package identity resolves who the process runs as and, when elevated via
// sudo, who invoked it. The result is computed once at startup and passed to
// every component that needs a home directory or a uid.
package identity

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

var (
	ErrNoHome              = errors.New("cannot determine a home directory")
	ErrUnknownInvokingUser = errors.New("invoking user not found")
	ErrMalformedUser       = errors.New("malformed user record")
)

// User is a resolved account.
type User struct {
	Name string
	UID  int
	Home string
}

// Identity describes the execution context.
type Identity struct {
	UID     int
	EUID    int
	Current User
	// Invoking is set only when the process is elevated and SUDO_USER names
	// a real account other than the current one.
	Invoking *User
}

// Elevated reports whether the process runs with root privileges.
func (i *Identity) Elevated() bool {
	return i.EUID == 0
}

// Target is the user whose files the sweeps operate on: the invoking user
// when elevated, otherwise the current user.
func (i *Identity) Target() User {
	if i.Elevated() && i.Invoking != nil {
		return *i.Invoking
	}
	return i.Current
}

// Home is the target user's home directory.
func (i *Identity) Home() string {
	return i.Target().Home
}

// CanDelegate reports whether deletions can be re-run as the invoking user.
func (i *Identity) CanDelegate() bool {
	return i.Elevated() && i.Invoking != nil
}

// Source supplies the process inputs Resolve reads. Tests replace it.
type Source struct {
	Getenv  func(string) string
	Geteuid func() int
	Getuid  func() int
	Current func() (*user.User, error)
	Lookup  func(string) (*user.User, error)
}

// System reads the real process state.
func System() Source {
	return Source{
		Getenv:  os.Getenv,
		Geteuid: unix.Geteuid,
		Getuid:  unix.Getuid,
		Current: user.Current,
		Lookup:  user.Lookup,
	}
}

// Resolve determines the execution identity from the running process.
func Resolve() (*Identity, error) {
	return ResolveFrom(System())
}

// ResolveFrom determines the execution identity from src.
func ResolveFrom(src Source) (*Identity, error) {
	id := &Identity{
		UID:  src.Getuid(),
		EUID: src.Geteuid(),
	}

	cur, err := src.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	current, err := fromOS(cur)
	if err != nil {
		return nil, err
	}
	if current.Home == "" {
		if h := src.Getenv("HOME"); h != "" {
			current.Home = h
		}
	}
	id.Current = current

	if id.Elevated() {
		if name := src.Getenv("SUDO_USER"); name != "" && name != current.Name {
			u, err := src.Lookup(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnknownInvokingUser, name, err)
			}
			invoking, err := fromOS(u)
			if err != nil {
				return nil, err
			}
			id.Invoking = &invoking
		}
	}

	if id.Home() == "" {
		return nil, ErrNoHome
	}
	return id, nil
}

func fromOS(u *user.User) (User, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil || uid < 0 {
		return User{}, fmt.Errorf("%w: uid %q for %s", ErrMalformedUser, u.Uid, u.Username)
	}
	return User{Name: u.Username, UID: uid, Home: u.HomeDir}, nil
}
