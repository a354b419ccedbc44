package main

import (
	"go-bank-ledger/app"
)

func main() {
	app.Run()
}
