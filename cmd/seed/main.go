// Command seed fills raw_matches with generated results so a development
// database has something to replay.
package main

import (
	"context"
	"flag"
	"os"

	"elo-ledger/internal/config"
	"elo-ledger/internal/constants"
	"elo-ledger/internal/database"
	"elo-ledger/internal/domain"
	"elo-ledger/internal/logger"
	"elo-ledger/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
)

type rulePick struct {
	ruleType string
	params   map[string]float64
}

func main() {
	count := flag.Int("count", 50, "number of raw results to generate")
	seed := flag.Uint64("seed", 0, "faker seed (0 means random)")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	faker := gofakeit.New(*seed)

	tournaments := []domain.Tournament{
		{Name: "Spring Invitational", Date: "2025-02-15"},
		{Name: "Summer Qualifier", Date: "2025-06-20"},
		{Name: "Autumn Open", Date: "2025-09-10"},
	}

	players := make([]string, 0, 15)
	for len(players) < cap(players) {
		name := faker.Name()
		players = append(players, name)
	}

	rulePool := []rulePick{
		{domain.RuleTypeRound, map[string]float64{"C": 7, "G": 7}},
		{domain.RuleTypeRound, map[string]float64{"C": 5, "G": 5}},
		{domain.RuleTypeCap, map[string]float64{"Q": 11}},
	}

	records := make([]domain.RawMatch, 0, *count)
	for range *count {
		t := tournaments[faker.IntRange(0, len(tournaments)-1)]
		a := players[faker.IntRange(0, len(players)-1)]
		b := players[faker.IntRange(0, len(players)-1)]
		for b == a {
			b = players[faker.IntRange(0, len(players)-1)]
		}
		rule := rulePool[faker.IntRange(0, len(rulePool)-1)]

		records = append(records, domain.RawMatch{
			TournamentName: t.Name,
			Date:           t.Date,
			PlayerAName:    a,
			PlayerBName:    b,
			ScoreA:         faker.IntRange(0, 10),
			ScoreB:         faker.IntRange(0, 10),
			RuleType:       rule.ruleType,
			RuleParams:     rule.params,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	repo := repository.NewRawMatchRepository(db, log)
	inserted, err := repo.InsertBatch(ctx, records)
	if err != nil {
		log.Error().Err(err).Msg("failed to insert raw results")
		os.Exit(1)
	}

	log.Info().Int("inserted", inserted).Msg("raw results seeded; run a full replay to build the rankings")
}
