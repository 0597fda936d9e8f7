// Package session persists wizard state between requests.
//
// A Binder identifies the browser with a cookie holding a random session id
// and loads the wizard.SessionSnapshot stored under that id from a Store.
// MemoryStore keeps snapshots in process; RedisStore shares them between
// server instances:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	binder := session.NewBinder(session.NewRedisStore(client),
//		session.WithTTL(30*time.Minute),
//	)
//	w, err := wizard.New("/apply", steps, wizard.WithSessionBinder(binder))
package session
