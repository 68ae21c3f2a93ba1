// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import "fmt"

const (
	gitHead = "ref: refs/heads/main\n"

	gitignore = `.anchor
.DS_Store
target
**/*.rs.bk
node_modules
test-ledger
.yarn
`

	workspaceCargoTOML = `[workspace]
members = [
    "programs/*"
]
resolver = "2"

[profile.release]
overflow-checks = true
lto = "fat"
codegen-units = 1
`

	packageJSON = `{
  "license": "ISC",
  "scripts": {
    "lint:fix": "prettier */*.js \"*/**/*{.js,.ts}\" -w",
    "lint": "prettier */*.js \"*/**/*{.js,.ts}\" --check"
  },
  "dependencies": {
    "@coral-xyz/anchor": "^0.30.1"
  },
  "devDependencies": {
    "chai": "^4.3.4",
    "mocha": "^9.0.3",
    "ts-mocha": "^10.0.0",
    "@types/bn.js": "^5.1.0",
    "@types/chai": "^4.3.0",
    "@types/mocha": "^9.0.0",
    "typescript": "^4.3.5",
    "prettier": "^2.6.2"
  }
}
`

	tsconfigJSON = `{
  "compilerOptions": {
    "types": ["mocha", "chai"],
    "typeRoots": ["./node_modules/@types"],
    "lib": ["es2015"],
    "module": "commonjs",
    "target": "es6",
    "esModuleInterop": true
  }
}
`
)

func anchorTOML(module, programID string) string {
	return fmt.Sprintf(`[toolchain]

[features]
resolution = true
skip-lint = false

[programs.localnet]
%s = "%s"

[registry]
url = "https://api.apr.dev"

[provider]
cluster = "Localnet"
wallet = "~/.config/solana/id.json"

[scripts]
test = "yarn run ts-mocha -p ./tsconfig.json -t 1000000 tests/**/*.ts"
`, module, programID)
}

func programCargoTOML(crate, module string) string {
	return fmt.Sprintf(`[package]
name = "%s"
version = "0.1.0"
description = "Created with Anchor"
edition = "2021"

[lib]
crate-type = ["cdylib", "lib"]
name = "%s"

[features]
default = []
cpi = ["no-entrypoint"]
no-entrypoint = []
no-idl = []
no-log-ix-name = []
idl-build = ["anchor-lang/idl-build"]

[dependencies]
anchor-lang = "0.30.1"
`, crate, module)
}

func libRS(module, programID string) string {
	return fmt.Sprintf(`use anchor_lang::prelude::*;

declare_id!("%s");

#[program]
pub mod %s {
    use super::*;

    pub fn initialize(ctx: Context<Initialize>) -> Result<()> {
        msg!("Greetings from: {:?}", ctx.program_id);
        Ok(())
    }
}

#[derive(Accounts)]
pub struct Initialize {}
`, programID, module)
}

func testTS(crate, module string) string {
	typeName := camelCase(module)
	return fmt.Sprintf(`import * as anchor from "@coral-xyz/anchor";
import { Program } from "@coral-xyz/anchor";
import { %[1]s } from "../target/types/%[2]s";
import { assert } from "chai";

describe("%[3]s", () => {
  anchor.setProvider(anchor.AnchorProvider.env());

  const program = anchor.workspace.%[1]s as Program<%[1]s>;

  it("Is initialized!", async () => {
    const tx = await program.methods.initialize().rpc();
    assert.ok(tx);
  });
});
`, typeName, module, crate)
}
