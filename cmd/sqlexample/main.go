package main

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eatonphil/podrm"
)

type user struct {
	Name string `db:"name"`
	Age  uint64 `db:"age"`
}

func main() {
	conn, err := sql.Open(podrm.DriverName, "memory:sqlexample")
	if err != nil {
		panic(err)
	}
	// Every connection would get its own private database
	conn.SetMaxOpenConns(1)

	db := sqlx.NewDb(conn, podrm.DriverName)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE users (name TEXT, age INTEGER);`)
	if err != nil {
		panic(err)
	}

	for _, u := range []user{{"Terry", 45}, {"Anette", 57}} {
		_, err = db.NamedExec("INSERT INTO users (name, age) VALUES (:name, :age);", u)
		if err != nil {
			panic(err)
		}
	}

	rows, err := db.Query("SELECT name, age FROM users;")
	if err != nil {
		panic(err)
	}

	var name string
	var age uint64
	defer rows.Close()
	for rows.Next() {
		err := rows.Scan(&name, &age)
		if err != nil {
			panic(err)
		}

		fmt.Printf("Name: %s, Age: %d\n", name, age)
	}

	if err = rows.Err(); err != nil {
		panic(err)
	}

	var older []user
	err = db.Select(&older, "SELECT name, age FROM users WHERE age > ? ORDER BY age;", 50)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Older than 50: %+v\n", older)
}
