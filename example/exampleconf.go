// Command exampleconf builds a site from settings written in Go instead of a
// settings file.
package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/thomas11/attila"
)

const siteUrl = "http://example.com"

func main() {
	conf := attila.DefaultSettings()
	conf.SiteName = "Joe User's site."
	conf.SiteURL = siteUrl
	conf.Author = "Joe User"
	conf.Path = "../writing"
	conf.OutputPath = "out"
	conf.Theme = "../theme"
	conf.HeaderCover = "/images/header.jpg"
	conf.ShowAuthorBioInArticle = true
	conf.AuthorMeta["Joe User"] = attila.TaxonomyMeta{
		Bio:     "Writes things.",
		GitHub:  "joeuser",
		Website: siteUrl,
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if _, err := attila.NewSite(conf, logger, false).Build(); err != nil {
		logger.Fatal("Build failed", zap.Error(err))
	}
}
