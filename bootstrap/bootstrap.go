package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"

	"github.com/fulldump/mpgfinder/api"
	"github.com/fulldump/mpgfinder/catalog"
	"github.com/fulldump/mpgfinder/configuration"
	"github.com/fulldump/mpgfinder/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	cat := catalog.New(&catalog.Config{
		File:          c.DataFile,
		SiteURL:       c.SiteURL,
		CacheTTL:      c.CacheTTL,
		NotFoundTTL:   c.NotFoundTTL,
		CacheCapacity: c.CacheCapacity,
		MemoSize:      c.QueryMemo,
		Watch:         c.Watch,
	})

	s := service.NewService(cat, service.Config{
		WindowInitial: c.WindowInitial,
		WindowBatch:   c.WindowBatch,
	})

	b := api.Build(s, cat, VERSION)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	log.Println("listening on", c.HttpAddr)

	stop = func() {
		cat.Stop()
		server.Shutdown(context.Background())
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			fmt.Println("Signal received", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := cat.Start()
			if err != nil {
				fmt.Println("ERROR:", err.Error())
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := server.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				fmt.Println(err.Error())
			}
		}()

		wg.Wait()
	}

	return
}
