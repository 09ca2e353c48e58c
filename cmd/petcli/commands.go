package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	petstore "github.com/afinana/go-server-petstore"
)

var HelpGet = errors.New("get pets 1")

func (repl *REPL) CommandGet(arg string) error {
	collection, id, ok := splitArg(arg)
	if !ok {
		return HelpGet
	}
	doc, err := repl.store.FindOne(context.Background(), collection, id)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

var HelpAll = errors.New("all users")

func (repl *REPL) CommandAll(arg string) error {
	if arg == "" {
		return HelpAll
	}
	docs, err := repl.store.FindAll(context.Background(), arg)
	if err != nil {
		return err
	}
	return printJSON(docs)
}

var HelpFind = errors.New("find pets status available,sold")

func (repl *REPL) CommandFind(arg string) error {
	parts := strings.Fields(arg)
	if len(parts) != 3 {
		return HelpFind
	}
	collection, field, values := parts[0], parts[1], strings.Split(parts[2], ",")
	docs, err := repl.store.Find(context.Background(), collection, petstore.Query{
		Operator: "eq",
		Field:    collection + ":" + field,
		Value:    values,
	})
	if err != nil {
		return err
	}
	return printJSON(docs)
}

var HelpInsert = errors.New(`insert pets {"id":1,"status":"available"}`)

func (repl *REPL) CommandInsert(arg string) error {
	collection, blob, ok := splitArg(arg)
	if !ok {
		return HelpInsert
	}
	var doc petstore.Document
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return err
	}
	if err := repl.store.Insert(context.Background(), collection, doc); err != nil {
		return err
	}
	fmt.Printf("inserted %s\n", collection)
	return nil
}

var HelpDelete = errors.New("delete pets 1")

func (repl *REPL) CommandDelete(arg string) error {
	collection, id, ok := splitArg(arg)
	if !ok {
		return HelpDelete
	}
	if err := repl.store.Delete(context.Background(), collection, id); err != nil {
		return err
	}
	fmt.Printf("deleted %s:%s\n", collection, id)
	return nil
}

func (repl *REPL) CommandHelp(string) error {
	for _, h := range []error{HelpGet, HelpAll, HelpFind, HelpInsert, HelpDelete} {
		fmt.Println(h.Error())
	}
	return nil
}

func splitArg(arg string) (first, rest string, ok bool) {
	ws := strings.IndexAny(arg, " \t")
	if ws <= 0 {
		return "", "", false
	}
	return arg[:ws], strings.TrimSpace(arg[ws:]), true
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
