package internal_test

import (
	"database/sql"
	"net/http"
	"net/netip"
	"os"
	"time"

	"github.com/frahmantamala/access-control/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() *internal.Config {
	cfg := &internal.Config{
		Database: internal.DatabaseConfig{
			Source:       "postgres://localhost/access_control",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Security: internal.SecurityConfig{BCryptCost: 12},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	It("accepts a minimal configuration once defaults are applied", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("defaults to repeatable read transactions", func() {
		opts, err := validConfig().Database.TxOptions()
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Isolation).To(Equal(sql.LevelRepeatableRead))
	})

	DescribeTable("maps isolation levels",
		func(level string, want sql.IsolationLevel) {
			db := internal.DatabaseConfig{IsolationLevel: level}
			opts, err := db.TxOptions()
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.Isolation).To(Equal(want))
		},
		Entry("read committed", "read_committed", sql.LevelReadCommitted),
		Entry("repeatable read", "repeatable_read", sql.LevelRepeatableRead),
		Entry("serializable", "serializable", sql.LevelSerializable),
	)

	It("keeps the cookie from outliving the session", func() {
		cfg := validConfig()
		Expect(cfg.Security.AccessTokenTTL).To(Equal(24 * time.Hour))
		Expect(cfg.Security.Cookie.MaxAge).To(Equal(24 * time.Hour))

		cfg = &internal.Config{Security: internal.SecurityConfig{
			AccessTokenTTL: time.Hour,
			Cookie:         internal.CookieConfig{MaxAge: 48 * time.Hour},
		}}
		cfg.ApplyDefaults()
		Expect(cfg.Security.Cookie.MaxAge).To(Equal(time.Hour))
	})

	It("aggregates section errors", func() {
		cfg := validConfig()
		cfg.Database.Source = ""
		cfg.Security.BCryptCost = 4
		cfg.Security.Cookie.SameSite = "sideways"

		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("source is required")))
		Expect(err).To(MatchError(ContainSubstring("bcrypt_cost")))
	})

	It("parses cookie SameSite modes", func() {
		mode, err := (&internal.CookieConfig{SameSite: "Strict"}).SameSiteMode()
		Expect(err).NotTo(HaveOccurred())
		Expect(mode).To(Equal(http.SameSiteStrictMode))

		_, err = (&internal.CookieConfig{SameSite: "sideways"}).SameSiteMode()
		Expect(err).To(HaveOccurred())
	})

	It("parses trusted proxies as addresses or ranges", func() {
		server := internal.ServerConfig{TrustedProxies: "10.0.0.0/8, 192.168.1.7"}
		prefixes, err := server.TrustedProxyPrefixes()
		Expect(err).NotTo(HaveOccurred())
		Expect(prefixes).To(Equal([]netip.Prefix{
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("192.168.1.7/32"),
		}))

		server.TrustedProxies = "proxy.local"
		Expect(server.Validate()).To(MatchError(ContainSubstring("invalid trusted proxy")))
	})

	It("trusts no proxy and no origin in environment mode by default", func() {
		for _, key := range []string{"ALLOWED_ORIGINS", "TRUSTED_PROXIES"} {
			if v, ok := os.LookupEnv(key); ok {
				Expect(os.Unsetenv(key)).To(Succeed())
				DeferCleanup(os.Setenv, key, v)
			}
		}

		cfg := internal.LoadConfigFromEnv()
		Expect(cfg.Server.AllowedOrigins).To(BeEmpty())
		Expect(cfg.Server.TrustedProxies).To(BeEmpty())
	})
})
