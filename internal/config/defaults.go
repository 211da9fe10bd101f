package config

// Written on first run. Keep both in sync.

const defaultYAML = `# actions-status configuration.
#
# repos: repositories to watch. owner and repo are required; workflow
# (file name or id), actor, branch and event narrow the runs considered.
repos:
  - owner: brunns
    repo: mbtest
  - owner: brunns
    repo: brunns-matchers
    workflow: ci.yml
    actor: brunns
    branch: master
    event: push
  - owner: hamcrest
    repo: PyHamcrest
    workflow: main.yml

# Seconds between polls.
interval: 60

# 0 error, 1 warn, 2 info, 3 debug, 4 trace.
verbosity: 2

# Rotating log file. Set to "" to log to stderr only.
logfile: /tmp/github_actions_status.log

# OAuth app used by "actions-status login". GITHUB_OAUTH_CLIENT_ID wins
# when set.
oauth_client_id: ""

# Overrides for GitHub Enterprise; empty means github.com.
api_url: ""
web_url: ""

# Defaults to ~/.github_actions_status/.oauth_token.
token_file: ""
`

const defaultJSON = `{
  // Repositories to watch. owner and repo are required; workflow, actor,
  // branch and event narrow the runs considered.
  "repos": [
    {"owner": "brunns", "repo": "mbtest"},
    {
      "owner": "brunns",
      "repo": "brunns-matchers",
      "workflow": "ci.yml",
      "actor": "brunns",
      "branch": "master",
      "event": "push"
    },
    {"owner": "hamcrest", "repo": "PyHamcrest", "workflow": "main.yml"}
  ],
  // Seconds between polls.
  "interval": 60,
  // 0 error, 1 warn, 2 info, 3 debug, 4 trace.
  "verbosity": 2,
  // Set to "" to log to stderr only.
  "logfile": "/tmp/github_actions_status.log",
  "oauth_client_id": "",
  "api_url": "",
  "web_url": "",
  "token_file": "",
}
`
