package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/staranto/cinectl/internal/meta"
	"github.com/urfave/cli/v3"
)

const bashCompletionScript = `# bash completion for cinectl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_cinectl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "browse cache fetch precache search serve sitemap trending completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t"
    local api="--apikey --timeout"
    local worker="--cache-name --origin"

    case "$cmd" in
        browse)
            local opts="$common $api --window -w"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "ls purge" -- "$cur") )
                return 0
            fi
            local opts="$common --hours"
            ;;
        fetch)
            local opts="$worker --include -i --offline --timeout"
            ;;
        precache)
            local opts="$common $worker --asset --concurrency --timeout"
            ;;
        search)
            local opts="$common $api --page -p"
            ;;
        serve)
            local opts="$worker --asset --concurrency --listen -l --precache"
            ;;
        sitemap)
            local opts="$api --domain -d --file -F --movie-path --quiet -q --strict --window -w --aws-profile --cache-control --s3-bucket --s3-endpoint --s3-key --s3-region"
            ;;
        trending)
            local opts="$common $api --window -w"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --window|-w)
            COMPREPLY=( $(compgen -W "day week" -- "$cur") )
            return 0
            ;;
        --file|-F)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _cinectl cinectl
`

const zshCompletionScript = `#compdef cinectl

_cinectl() {
  local -a cmds
  cmds=(
    'browse:interactive movie browser'
    'cache:inspect and clean the local cache'
    'fetch:GET a URL through the offline cache'
    'precache:fill the offline cache with the asset list'
    'search:search movies by title'
    'serve:serve the origin through the offline cache'
    'sitemap:generate sitemap.xml from trending movies'
    'trending:list trending movies'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  )

  local -a api
  api=(
  '--apikey[TMDB API key]:key'
  '--timeout[request timeout]:duration'
  )

  local -a worker
  worker=(
  '--cache-name[cache store]:name'
  '--origin[site origin]:url'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'cinectl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    browse|trending)
      _arguments -C \
        $common $api \
        '(-w --window)'{-w,--window}'[trending window]:window:(day week)'
      ;;
    search)
      _arguments -C \
        $common $api \
        '(-p --page)'{-p,--page}'[result page]:page' \
        '*:query'
      ;;
    sitemap)
      _arguments -C \
        $api \
        '(-d --domain)'{-d,--domain}'[site origin]:url' \
        '(-F --file)'{-F,--file}'[output path]:file:_files' \
        '--movie-path[movie path prefix]:path' \
        '(-q --quiet)'{-q,--quiet}'[do not list targets]' \
        '--strict[fail without results]' \
        '(-w --window)'{-w,--window}'[trending window]:window:(day week)' \
        '--aws-profile[AWS profile]:profile' \
        '--cache-control[Cache-Control header]:value' \
        '--s3-bucket[upload bucket]:bucket' \
        '--s3-endpoint[S3 endpoint]:url' \
        '--s3-key[object key]:key' \
        '--s3-region[AWS region]:region'
      ;;
    precache)
      _arguments -C \
        $common $worker \
        '*--asset[asset to precache]:asset' \
        '--concurrency[parallel fetches]:n' \
        '--timeout[install timeout]:duration'
      ;;
    fetch)
      _arguments -C \
        $worker \
        '(-i --include)'{-i,--include}'[print headers]' \
        '--offline[cache only]' \
        '--timeout[request timeout]:duration' \
        '1:url'
      ;;
    serve)
      _arguments -C \
        $worker \
        '*--asset[asset to precache]:asset' \
        '--concurrency[parallel fetches]:n' \
        '(-l --listen)'{-l,--listen}'[listen address]:addr' \
        '--precache[precache before serving]'
      ;;
    cache)
      _arguments -C \
        '1:subcommand:(ls purge)' \
        '--hours[purge age]:hours' \
        $common
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _cinectl cinectl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	out := Stdout(cmd)

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(out, bashCompletionScript)
	case "zsh":
		fmt.Fprint(out, zshCompletionScript)
	default:
		fmt.Fprintln(os.Stderr, "usage: cinectl completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "cinectl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
