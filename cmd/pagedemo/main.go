// Command pagedemo drives a single navigation through the page runtime
// end to end: stdclient fetches a document, htmldriver parses it,
// ScriptManager evaluates its scripts against a deterministic jsengine
// stub, and the resulting document is serialized back out. Grounded on
// atdiar-particleui's dev/ driver programs, which likewise exist purely to
// exercise the library against a real run rather than to ship a product.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/atdiar/pagecore"
	"github.com/atdiar/pagecore/internal/jsengine"
	"github.com/atdiar/pagecore/internal/notify"
)

func main() {
	url := flag.String("url", "about:blank", "URL to navigate to")
	budgetMS := flag.Int64("tick-ms", 50, "milliseconds per Tick call while waiting")
	timeout := flag.Duration("timeout", 10*time.Second, "overall wait timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	engine := jsengine.NewStub()
	engine.OnEval = func(source []byte, evalURL string, isModule bool) error {
		logger.Info("script evaluated", "url", evalURL, "module", isModule, "bytes", len(source))
		return nil
	}

	page := pagecore.NewPage(pagecore.PageOptions{
		ID:     "pagedemo-1",
		Engine: engine,
		Logger: logger,
	})

	page.Bus().Subscribe(notify.PageNetworkIdle, func(ev notify.Event) {
		logger.Info("network idle", "url", ev.URL)
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	page.Navigate(ctx, *url, pagecore.NavigateOptions{})

	deadline := time.Now().Add(*timeout)
	for page.PendingLoads() > 0 && time.Now().Before(deadline) {
		page.Tick(*budgetMS)
	}

	fmt.Println(pagecore.SerializeChildren(page.Doc.Root()))
	fmt.Fprintf(os.Stderr, "final state: %s\n", page.String())
}
