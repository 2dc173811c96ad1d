// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Command test is a helper program for cross-process message queue tests.
//
//	create  -name /q [-maxmsg n] [-msgsize n]
//	destroy -name /q
//	send    -name /q [-timeout ms] {hex bytes}
//	expect  -name /q [-timeout ms] {hex bytes}
//	size    -name /q
//
// Byte arrays are passed as a continuous string of 2-symbol hex values like '01020A'.
// A negative timeout means 'block'.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	testutil "github.com/nxgtw/go-mqueue/internal/test"
	"github.com/nxgtw/go-mqueue/mq"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&create{}, "")
	subcommands.Register(&destroy{}, "")
	subcommands.Register(&send{}, "")
	subcommands.Register(&expect{}, "")
	subcommands.Register(&size{}, "")
	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// queueFlags are flags shared by all the commands.
type queueFlags struct {
	name    string
	timeout int
}

func (qf *queueFlags) setFlags(f *flag.FlagSet, withTimeout bool) {
	f.StringVar(&qf.name, "name", "", "mq name, like /test")
	if withTimeout {
		f.IntVar(&qf.timeout, "timeout", -1, "timeout for send/receive in ms, negative to block")
	}
}

func (qf *queueFlags) open() (*mq.Queue, error) {
	if len(qf.name) == 0 {
		return nil, errors.New("-name is required")
	}
	return mq.Open(qf.name, &mq.Config{Mode: mq.OpenOnly})
}

func (qf *queueFlags) timed() bool {
	return qf.timeout >= 0
}

func (qf *queueFlags) duration() time.Duration {
	return time.Duration(qf.timeout) * time.Millisecond
}

// exit reports err and converts it into an exit status.
func exit(cmd string, err error) subcommands.ExitStatus {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func payloadArg(f *flag.FlagSet) ([]byte, error) {
	if f.NArg() != 1 {
		return nil, errors.New("must provide exactly one byte array argument")
	}
	return testutil.StringToBytes(f.Arg(0))
}

type create struct {
	queueFlags
	maxMsg  int64
	msgSize int64
}

func (*create) Name() string     { return "create" }
func (*create) Synopsis() string { return "create a new mq" }
func (*create) Usage() string    { return "create -name /q [-maxmsg n] [-msgsize n]\n" }

func (c *create) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, false)
	f.Int64Var(&c.maxMsg, "maxmsg", 0, "queue capacity, 0 for the platform default")
	f.Int64Var(&c.msgSize, "msgsize", 0, "max message size, 0 for the platform default")
}

func (c *create) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(c.name) == 0 || f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	q, err := mq.Open(c.name, &mq.Config{
		Mode:           mq.CreateOnly,
		MaxMessages:    c.maxMsg,
		MaxMessageSize: c.msgSize,
		Perm:           0666,
	})
	if err != nil {
		return exit(c.Name(), err)
	}
	return exit(c.Name(), q.Close())
}

type destroy struct {
	queueFlags
}

func (*destroy) Name() string     { return "destroy" }
func (*destroy) Synopsis() string { return "unlink an mq" }
func (*destroy) Usage() string    { return "destroy -name /q\n" }

func (d *destroy) SetFlags(f *flag.FlagSet) {
	d.setFlags(f, false)
}

func (d *destroy) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(d.name) == 0 || f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return exit(d.Name(), mq.Unlink(d.name))
}

type send struct {
	queueFlags
}

func (*send) Name() string     { return "send" }
func (*send) Synopsis() string { return "send a message to an existing mq" }
func (*send) Usage() string    { return "send -name /q [-timeout ms] {hex bytes}\n" }

func (s *send) SetFlags(f *flag.FlagSet) {
	s.setFlags(f, true)
}

func (s *send) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	data, err := payloadArg(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		f.Usage()
		return subcommands.ExitUsageError
	}
	q, err := s.open()
	if err != nil {
		return exit(s.Name(), err)
	}
	defer q.Close()
	if s.timed() {
		err = q.SendTimeout(data, s.duration())
	} else {
		err = q.Send(data)
	}
	return exit(s.Name(), err)
}

type expect struct {
	queueFlags
}

func (*expect) Name() string     { return "expect" }
func (*expect) Synopsis() string { return "receive a message and compare it with the expected one" }
func (*expect) Usage() string    { return "expect -name /q [-timeout ms] {hex bytes}\n" }

func (e *expect) SetFlags(f *flag.FlagSet) {
	e.setFlags(f, true)
}

func (e *expect) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	expected, err := payloadArg(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		f.Usage()
		return subcommands.ExitUsageError
	}
	q, err := e.open()
	if err != nil {
		return exit(e.Name(), err)
	}
	defer q.Close()
	var received []byte
	if e.timed() {
		received, err = q.ReceiveTimeout(e.duration())
	} else {
		received, err = q.Receive()
	}
	if err == nil && string(received) != string(expected) {
		err = errors.Errorf("expected %s, got %s",
			testutil.BytesToString(expected), testutil.BytesToString(received))
	}
	return exit(e.Name(), err)
}

type size struct {
	queueFlags
}

func (*size) Name() string     { return "size" }
func (*size) Synopsis() string { return "print the number of messages in an mq" }
func (*size) Usage() string    { return "size -name /q\n" }

func (s *size) SetFlags(f *flag.FlagSet) {
	s.setFlags(f, false)
}

func (s *size) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	q, err := s.open()
	if err != nil {
		return exit(s.Name(), err)
	}
	defer q.Close()
	n, err := q.Size()
	if err == nil {
		fmt.Println(n)
	}
	return exit(s.Name(), err)
}
