package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/eatonphil/podrm"
)

type Address struct {
	ID         int64
	PostalCode string
}

type Person struct {
	ID      int64
	Name    string
	Address int64
}

var addresses = podrm.NewEntity[Address](
	podrm.MustDescribe(podrm.EntityDescription{
		Table: "Address",
		Columns: []podrm.Column{
			{Name: "id", Kind: podrm.IntKind},
			{Name: "postalCode", Kind: podrm.TextKind},
		},
		IDMode: podrm.Auto,
	}),
	podrm.CodecFuncs[Address]{
		EncodeFunc: func(a *Address) ([]podrm.Value, error) {
			return []podrm.Value{podrm.Int(a.ID), podrm.Text(a.PostalCode)}, nil
		},
		DecodeFunc: func(values []podrm.Value, a *Address) (err error) {
			if a.ID, err = values[0].AsInt(); err != nil {
				return err
			}
			a.PostalCode, err = values[1].AsText()
			return err
		},
	},
)

var people = podrm.NewEntity[Person](
	podrm.MustDescribe(podrm.EntityDescription{
		Table: "Person",
		Columns: []podrm.Column{
			{Name: "id", Kind: podrm.IntKind},
			{Name: "name", Kind: podrm.TextKind},
			{Name: "address", Kind: podrm.IntKind},
		},
		IDMode: podrm.Auto,
		ForeignKeys: []podrm.ForeignKey{
			{Column: 2, References: addresses.Description},
		},
	}),
	podrm.CodecFuncs[Person]{
		EncodeFunc: func(p *Person) ([]podrm.Value, error) {
			return []podrm.Value{podrm.Int(p.ID), podrm.Text(p.Name), podrm.Int(p.Address)}, nil
		},
		DecodeFunc: func(values []podrm.Value, p *Person) (err error) {
			if p.ID, err = values[0].AsInt(); err != nil {
				return err
			}
			if p.Name, err = values[1].AsText(); err != nil {
				return err
			}
			p.Address, err = values[2].AsInt()
			return err
		},
	},
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

	conn, err := podrm.InMemory("library", podrm.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	err = podrm.CreateTable(conn, addresses)
	if err != nil {
		panic(err)
	}

	err = podrm.CreateTable(conn, people)
	if err != nil {
		panic(err)
	}

	address := Address{PostalCode: "abc"}
	err = podrm.Persist(conn, addresses, &address)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Persisted address %d\n", address.ID)

	person := Person{Name: "Alex", Address: address.ID}
	err = podrm.Persist(conn, people, &person)
	if err != nil {
		panic(err)
	}

	found, ok, err := podrm.Find(conn, people, podrm.Int(person.ID))
	if err != nil {
		panic(err)
	}
	fmt.Printf("Found %v: %+v\n", ok, found)

	err = podrm.Erase(conn, addresses, podrm.Int(address.ID))
	if !errors.Is(err, podrm.ErrForeignKeyViolation) {
		panic(fmt.Sprintf("Expected foreign key violation, got: %v", err))
	}
	fmt.Println("Address is still referenced:", err)

	err = podrm.Erase(conn, people, podrm.Int(person.ID))
	if err != nil {
		panic(err)
	}

	err = podrm.Erase(conn, addresses, podrm.Int(address.ID))
	if err != nil {
		panic(err)
	}

	_, ok, err = podrm.Find(conn, people, podrm.Int(person.ID))
	if err != nil {
		panic(err)
	}
	fmt.Printf("Found after erase: %v\n", ok)
}
