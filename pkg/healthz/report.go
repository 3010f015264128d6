package healthz

import (
	"fmt"
	"sync"
	"time"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

var REALM = logging.DefineRealm("dbinit/healthz", "health monitoring")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// Start configures a check expected to be ticked at
// least every period. Until the first tick the check
// is reported as failing.
func Start(key string, period time.Duration) {
	lock.Lock()
	defer lock.Unlock()

	checks[key] = &check{timeout: 3 * period}
}

func Tick(key string) {
	lock.Lock()
	defer lock.Unlock()

	c := checks[key]
	if c == nil {
		panic(fmt.Sprintf("check with key %q not configured", key))
	}
	c.last = time.Now()
}

func End(key string) {
	lock.Lock()
	defer lock.Unlock()

	delete(checks, key)
}

type check struct {
	last    time.Time
	timeout time.Duration
}

var (
	checks = map[string]*check{}
	lock   sync.Mutex
)

func IsHealthy() bool {
	ok, _ := HealthInfo()
	return ok
}

// HealthInfo reports the health state and a line per check.
func HealthInfo() (bool, string) {
	lock.Lock()
	defer lock.Unlock()

	ok := true
	info := ""
	limit := time.Now()
	for _, key := range utils.OrderedMapKeys(checks) {
		c := checks[key]
		if c.last.IsZero() {
			info += fmt.Sprintf("%s: pending\n", key)
			ok = false
			continue
		}
		info += fmt.Sprintf("%s: %s\n", key, c.last.Format(time.RFC3339))
		if c.last.Before(limit.Add(-c.timeout)) {
			log.Warn("outdated health check {{key}}", "key", key, "last", c.last)
			ok = false
		}
	}
	return ok, info
}
