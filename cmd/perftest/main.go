package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eatonphil/podrm"
)

type user struct {
	id  int64
	inc int64
}

var users = podrm.NewEntity[user](
	podrm.MustDescribe(podrm.EntityDescription{
		Table: "users",
		Columns: []podrm.Column{
			{Name: "id", Kind: podrm.IntKind},
			{Name: "inc", Kind: podrm.IntKind},
		},
		IDMode: podrm.Manual,
	}),
	podrm.CodecFuncs[user]{
		EncodeFunc: func(u *user) ([]podrm.Value, error) {
			return []podrm.Value{podrm.Int(u.id), podrm.Int(u.inc)}, nil
		},
		DecodeFunc: func(values []podrm.Value, u *user) (err error) {
			if u.id, err = values[0].AsInt(); err != nil {
				return err
			}
			u.inc, err = values[1].AsInt()
			return err
		},
	},
)

var inserts = 0
var lastId int64 = 0
var firstId int64 = 0

func doInsert(conn *podrm.Connection) {
	source := rand.NewSource(time.Now().UnixNano())
	r := rand.New(source)
	// Identifiers are a primary key, so draw them without repeats
	ids := r.Perm(inserts * 10)[:inserts]
	for i, id := range ids {
		lastId = int64(id)
		if i == 0 {
			firstId = lastId
		}

		err := podrm.Persist(conn, users, &user{id: lastId, inc: int64(i)})
		if err != nil {
			panic(err)
		}
	}
}

func doSelect(conn *podrm.Connection) {
	u, ok, err := podrm.Find(conn, users, podrm.Int(lastId))
	if err != nil {
		panic(err)
	}

	if !ok {
		panic("Expected 1 row")
	}

	if u.inc != int64(inserts-1) {
		panic(fmt.Sprintf("Bad row, got: %d", u.inc))
	}

	u, ok, err = podrm.Find(conn, users, podrm.Int(firstId))
	if err != nil {
		panic(err)
	}

	if !ok {
		panic("Expected 1 row")
	}

	if u.inc != 0 {
		panic(fmt.Sprintf("Bad row, got: %d", u.inc))
	}
}

func perf(name string, conn *podrm.Connection, cb func(conn *podrm.Connection)) {
	start := time.Now()
	fmt.Println("Starting", name)
	cb(conn)
	fmt.Printf("Finished %s: %f seconds\n", name, time.Since(start).Seconds())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("Alloc = %d MiB\n\n", m.Alloc/1024/1024)
}

func printMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		panic(err)
	}

	for _, family := range families {
		if family.GetName() != "podrm_operations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := ""
			for _, label := range metric.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", label.GetName(), label.GetValue())
			}
			fmt.Printf("%s%s %.0f\n", family.GetName(), labels, metric.GetCounter().GetValue())
		}
	}
}

func parseArgs(args []string) (path string, n int, err error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg != "--in-file" && arg != "--inserts" {
			continue
		}

		if i+1 >= len(args) {
			return "", 0, errors.Errorf("missing value for %s", arg)
		}
		i++

		if arg == "--in-file" {
			path = args[i]
			continue
		}

		n, err = strconv.Atoi(args[i])
		if err != nil {
			return "", 0, errors.Errorf("bad --inserts value %q", args[i])
		}
	}

	return path, n, nil
}

func main() {
	path, n, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	inserts = n

	if inserts <= 0 {
		fmt.Println("Nothing to do, pass --inserts N")
		return
	}

	reg := prometheus.NewRegistry()
	metrics := podrm.NewMetrics(reg)

	var conn *podrm.Connection
	if path == "" {
		conn, err = podrm.InMemory("perftest", podrm.WithMetrics(metrics))
	} else {
		conn, err = podrm.InFile(path, podrm.WithMetrics(metrics))
	}
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	err = podrm.CreateTable(conn, users)
	if err != nil {
		panic(err)
	}

	storageString := " in memory"
	if path != "" {
		storageString = " into " + path
	}
	fmt.Printf("Inserting %d rows%s\n", inserts, storageString)

	perf("INSERT", conn, doInsert)
	perf("SELECT", conn, doSelect)

	printMetrics(reg)
}
